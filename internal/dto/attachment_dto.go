package dto

import (
	"time"

	"github.com/lumen-edu/lumen-api/internal/models"
)

// AttachmentResponse describes a stored course material file.
type AttachmentResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAttachmentResponse maps an attachment model into its API shape.
func NewAttachmentResponse(attachment models.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        attachment.ID,
		CourseID:  attachment.CourseID,
		FileName:  attachment.FileName,
		URL:       attachment.URL,
		MimeType:  attachment.MimeType,
		SizeBytes: attachment.SizeBytes,
		Checksum:  attachment.Checksum,
		CreatedAt: attachment.CreatedAt,
	}
}

// NewAttachmentResponses maps a slice of attachments.
func NewAttachmentResponses(attachments []models.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(attachments))
	for _, attachment := range attachments {
		out = append(out, NewAttachmentResponse(attachment))
	}
	return out
}
