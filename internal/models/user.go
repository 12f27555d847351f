package models

import "time"

// User roles recognised across the platform.
const (
	RoleStudent = "student"
	RoleAuthor  = "author"
	RoleAdmin   = "admin"
)

// User represents a platform account, reachable through the bot or the web API.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID int64     `gorm:"uniqueIndex" json:"telegram_id"`
	Username   string    `gorm:"size:255" json:"username"`
	FullName   string    `gorm:"size:255" json:"full_name"`
	Role       string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsAuthor reports whether the user may manage courses.
func (u User) IsAuthor() bool {
	return u.Role == RoleAuthor || u.Role == RoleAdmin
}
