package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/repository"
)

// ErrUserNotFound indicates the user cannot be located.
var ErrUserNotFound = errors.New("user not found")

// UserService manages platform user accounts.
type UserService interface {
	// EnsureTelegramUser registers a Telegram account on first contact and
	// refreshes profile fields on subsequent ones.
	EnsureTelegramUser(ctx context.Context, telegramID int64, username, fullName string) (models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	GetByID(ctx context.Context, id uint) (models.User, error)
}

type userService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewUserService constructs a user service.
func NewUserService(userRepo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		users:  userRepo,
		logger: logger.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) EnsureTelegramUser(ctx context.Context, telegramID int64, username, fullName string) (models.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		changed := false
		if username != "" && user.Username != username {
			user.Username = username
			changed = true
		}
		if fullName != "" && user.FullName != fullName {
			user.FullName = fullName
			changed = true
		}
		if changed {
			if err := s.users.Update(ctx, &user); err != nil {
				return models.User{}, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}

	user = models.User{
		TelegramID: telegramID,
		Username:   username,
		FullName:   fullName,
		Role:       models.RoleStudent,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, err
	}
	s.logger.Info().Int64("telegram_id", telegramID).Uint("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *userService) GetByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
