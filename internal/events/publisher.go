// Package events fans graded-submission facts out to the message broker for
// downstream consumers (notifications, analytics).
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubmissionGraded is published after a verdict has been persisted.
type SubmissionGraded struct {
	UserID        uint      `json:"user_id"`
	TaskID        uint      `json:"task_id"`
	TaskKind      string    `json:"task_kind"`
	IsCorrect     bool      `json:"is_correct"`
	AttemptNumber int       `json:"attempt_number"`
	GradedAt      time.Time `json:"graded_at"`
}

// Publisher emits platform events. Publishing is best-effort: grading never
// fails because the broker is down.
type Publisher interface {
	SubmissionGraded(ctx context.Context, event SubmissionGraded)
}

// NewNATSPublisher constructs a publisher over an established NATS connection.
func NewNATSPublisher(conn *nats.Conn, subjectPrefix string, logger zerolog.Logger) Publisher {
	if subjectPrefix == "" {
		subjectPrefix = "lumen"
	}
	return &natsPublisher{
		conn:   conn,
		prefix: subjectPrefix,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

func (p *natsPublisher) SubmissionGraded(ctx context.Context, event SubmissionGraded) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode graded event")
		return
	}

	subject := p.prefix + ".submission.graded"
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to publish graded event")
	}
}

// NopPublisher discards all events. Used when the broker is not configured.
type NopPublisher struct{}

// SubmissionGraded implements Publisher.
func (NopPublisher) SubmissionGraded(context.Context, SubmissionGraded) {}
