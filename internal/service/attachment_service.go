package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/lumen-edu/lumen-api/internal/dto"
	"github.com/lumen-edu/lumen-api/internal/models"
	"github.com/lumen-edu/lumen-api/internal/observability"
	"github.com/lumen-edu/lumen-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrAttachmentNotFound indicates the attachment cannot be located.
	ErrAttachmentNotFound = errors.New("attachment not found")
)

// FileStorage abstracts the object storage destination for course materials.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (url string, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}

// AttachmentService validates, stores and lists course material files.
type AttachmentService interface {
	Upload(ctx context.Context, actor models.User, courseID uint, file *multipart.FileHeader) (dto.AttachmentResponse, error)
	ListForCourse(ctx context.Context, courseID uint) ([]dto.AttachmentResponse, error)
	Delete(ctx context.Context, actor models.User, id uint) error
}

type attachmentService struct {
	storage     FileStorage
	attachments repository.AttachmentRepository
	courses     repository.CourseRepository
	logger      zerolog.Logger
	maxSize     int64
	tracer      trace.Tracer
}

// NewAttachmentService constructs an attachment service.
func NewAttachmentService(storage FileStorage, attachmentRepo repository.AttachmentRepository, courseRepo repository.CourseRepository, maxSizeMB int, logger zerolog.Logger) AttachmentService {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &attachmentService{
		storage:     storage,
		attachments: attachmentRepo,
		courses:     courseRepo,
		logger:      logger.With().Str("component", "attachment_service").Logger(),
		maxSize:     int64(maxSizeMB) * 1024 * 1024,
		tracer:      otel.Tracer("github.com/lumen-edu/lumen-api/internal/service/attachment"),
	}
}

func (s *attachmentService) Upload(ctx context.Context, actor models.User, courseID uint, file *multipart.FileHeader) (dto.AttachmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "attachment.store")
	defer span.End()

	span.SetAttributes(
		attribute.Int("attachment.course_id", int(courseID)),
		attribute.Int64("attachment.max_bytes", s.maxSize),
	)

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttachmentResponse{}, ErrCourseNotFound
		}
		return dto.AttachmentResponse{}, err
	}
	if !course.IsOwnedBy(actor.ID) && actor.Role != models.RoleAdmin {
		return dto.AttachmentResponse{}, ErrForbidden
	}

	if file == nil {
		err := errors.New("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.AttachmentResponse{}, err
	}
	span.SetAttributes(
		attribute.String("attachment.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("attachment.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.AttachmentResponse{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return dto.AttachmentResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return dto.AttachmentResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return dto.AttachmentResponse{}, ErrUploadTooLarge
	}

	mime := mimetype.Detect(buf.Bytes())
	fileType := normalizeMime(mime.String())
	span.SetAttributes(attribute.String("attachment.detected_mime", fileType))
	if !isAllowedType(fileType) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return dto.AttachmentResponse{}, ErrUploadTypeNotAllowed
	}

	if err := s.scan(buf.Bytes(), fileType); err != nil {
		observability.UploadRejected().WithLabelValues("scan").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return dto.AttachmentResponse{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename)

	url, publicID, err := s.storage.Upload(ctx, sanitizedName, bytes.NewReader(buf.Bytes()))
	if err != nil {
		observability.UploadRejected().WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.AttachmentResponse{}, err
	}

	attachment := models.Attachment{
		CourseID:   courseID,
		FileName:   sanitizedName,
		URL:        url,
		PublicID:   publicID,
		MimeType:   fileType,
		SizeBytes:  int64(buf.Len()),
		Checksum:   hex.EncodeToString(checksum[:]),
		UploadedBy: actor.ID,
	}
	if err := s.attachments.Create(ctx, &attachment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		return dto.AttachmentResponse{}, err
	}

	span.SetStatus(codes.Ok, "stored")
	s.logger.Info().
		Uint("course_id", courseID).
		Uint("attachment_id", attachment.ID).
		Str("mime", fileType).
		Int64("size_bytes", attachment.SizeBytes).
		Msg("attachment stored")

	return dto.NewAttachmentResponse(attachment), nil
}

func (s *attachmentService) ListForCourse(ctx context.Context, courseID uint) ([]dto.AttachmentResponse, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	attachments, err := s.attachments.ListForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return dto.NewAttachmentResponses(attachments), nil
}

func (s *attachmentService) Delete(ctx context.Context, actor models.User, id uint) error {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttachmentNotFound
		}
		return err
	}

	course, err := s.courses.GetByID(ctx, attachment.CourseID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	} else if !course.IsOwnedBy(actor.ID) && actor.Role != models.RoleAdmin {
		return ErrForbidden
	}

	if attachment.PublicID != "" {
		if err := s.storage.Delete(ctx, attachment.PublicID); err != nil {
			s.logger.Warn().Err(err).Uint("attachment_id", id).Msg("failed to remove stored object")
		}
	}

	return s.attachments.Delete(ctx, id)
}

// scan rejects archives whose uncompressed size balloons far past the limit.
func (s *attachmentService) scan(payload []byte, mime string) error {
	if strings.Contains(mime, "zip") {
		reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
		if err != nil {
			return ErrUploadScanFailed
		}
		var totalUncompressed uint64
		for _, f := range reader.File {
			totalUncompressed += f.UncompressedSize64
			if totalUncompressed > uint64(s.maxSize*20) {
				return fmt.Errorf("zip archive uncompressed size too large: %w", ErrUploadScanFailed)
			}
		}
	}
	return nil
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("attachment-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if strings.HasPrefix(lower, "image/") {
		return "image"
	}
	switch lower {
	case "application/pdf":
		return "application/pdf"
	case "application/zip", "application/x-zip-compressed":
		return "application/zip"
	default:
		return lower
	}
}

func isAllowedType(m string) bool {
	if m == "image" {
		return true
	}
	switch m {
	case "application/pdf", "application/zip":
		return true
	default:
		return false
	}
}
