package models

import "time"

// Course groups tasks into a learning track owned by an author.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	CoverURL    string    `gorm:"size:512" json:"cover_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether the given user authored the course.
func (c Course) IsOwnedBy(userID uint) bool {
	return c.AuthorID != 0 && c.AuthorID == userID
}
