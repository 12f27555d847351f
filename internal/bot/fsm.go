package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Conversation steps of the answer flow.
const (
	StepIdle         = ""
	StepAwaitingCode = "awaiting_code"
	StepAwaitingText = "awaiting_text"
)

// Session is the per-chat conversation state. It survives bot restarts in
// redis so students can finish an answer they started typing.
type Session struct {
	Step     string `json:"step"`
	CourseID uint   `json:"course_id,omitempty"`
	TaskID   uint   `json:"task_id,omitempty"`
}

// SessionStore keeps conversation state keyed by Telegram chat.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (Session, error)
	Put(ctx context.Context, chatID int64, session Session) error
	Clear(ctx context.Context, chatID int64) error
}

type redisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore constructs a redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisSessionStore{client: client, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("lumen:bot:session:%d", chatID)
}

func (s *redisSessionStore) Get(ctx context.Context, chatID int64) (Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, nil
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		// Corrupt state is treated as no state.
		return Session{}, nil
	}
	return session, nil
}

func (s *redisSessionStore) Put(ctx context.Context, chatID int64, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(chatID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
