// Package bot implements the Telegram surface of the platform: command and
// callback routing, the redis-backed answer flow, and the long-poll loop.
package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumen-edu/lumen-api/pkg/telegram"
)

const updateBatchLimit = 100

// Bot runs the long-poll loop and hands updates to the Handler.
type Bot struct {
	client      *telegram.Client
	handler     *Handler
	pollTimeout time.Duration
	logger      zerolog.Logger

	offset int64
}

// New constructs the bot runner.
func New(client *telegram.Client, handler *Handler, pollTimeout time.Duration, logger zerolog.Logger) *Bot {
	if pollTimeout <= 0 {
		pollTimeout = 50 * time.Second
	}
	return &Bot{
		client:      client,
		handler:     handler,
		pollTimeout: pollTimeout,
		logger:      logger.With().Str("component", "bot").Logger(),
	}
}

// Run polls for updates until the context is cancelled. A webhook left over
// from a previous deployment is removed first, long polling and webhooks are
// mutually exclusive.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}
	b.logger.Info().Str("username", me.Username).Msg("bot authorized")

	if err := b.client.DeleteWebhook(ctx, false); err != nil {
		b.logger.Warn().Err(err).Msg("failed to delete webhook")
	}

	timeoutSec := int(b.pollTimeout / time.Second)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("stopping bot")
			return nil
		default:
		}

		updates, err := b.client.GetUpdates(ctx, b.offset, updateBatchLimit, timeoutSec)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			b.logger.Error().Err(err).Msg("failed to fetch updates")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for i := range updates {
			update := &updates[i]
			if update.UpdateID >= b.offset {
				b.offset = update.UpdateID + 1
			}

			if err := b.handler.HandleUpdate(ctx, update); err != nil {
				b.logger.Error().Err(err).Int64("update_id", update.UpdateID).Msg("failed to handle update")
			}
		}
	}
}
