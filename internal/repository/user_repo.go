package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// UserRepository exposes persistence operations for platform users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := dbFromContext(ctx, r.db).WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	var user models.User
	err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("telegram_id = ?", telegramID).
		First(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(user).Error
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(user).Error
}
