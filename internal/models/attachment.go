package models

import "time"

// Attachment stores metadata about a course material file kept in object
// storage.
type Attachment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	URL        string    `gorm:"size:512;not null" json:"url"`
	PublicID   string    `gorm:"size:255" json:"-"`
	MimeType   string    `gorm:"size:64" json:"mime_type"`
	SizeBytes  int64     `gorm:"default:0" json:"size_bytes"`
	Checksum   string    `gorm:"size:64" json:"checksum"`
	UploadedBy uint      `gorm:"index" json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
