package engine

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Dispatcher forwards actions emitted by the engine to the messaging
// platform. Implementations return ErrChatNotFound (possibly wrapped) for
// permanent failures; anything else is treated as transient. Remind and
// WarnInactivity are distinct from Deliver and Warn so the platform layer
// can render them in the chat's tone.
type Dispatcher interface {
	Deliver(ctx context.Context, chatID int64, text string) error
	Remind(ctx context.Context, chatID int64, message string) error
	Warn(ctx context.Context, chatID, userID int64, reason string) error
	WarnInactivity(ctx context.Context, chatID, userID int64, days int) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	RemoveUser(ctx context.Context, chatID, userID int64) error
}

// RetryDispatcher wraps a Dispatcher with bounded exponential backoff for
// transient failures. Permanent failures pass through immediately.
type RetryDispatcher struct {
	next       Dispatcher
	logger     *zap.Logger
	maxRetries uint64
	maxElapsed time.Duration
}

func NewRetryDispatcher(next Dispatcher, logger *zap.Logger, maxRetries uint64, maxElapsed time.Duration) *RetryDispatcher {
	return &RetryDispatcher{
		next:       next,
		logger:     logger,
		maxRetries: maxRetries,
		maxElapsed: maxElapsed,
	}
}

func (d *RetryDispatcher) retry(ctx context.Context, name string, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = d.maxElapsed

	err := backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrChatNotFound) {
			return backoff.Permanent(err)
		}
		d.logger.Warn("Dispatch attempt failed, retrying",
			zap.String("action", name),
			zap.Error(err))
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, d.maxRetries), ctx))

	return err
}

func (d *RetryDispatcher) Deliver(ctx context.Context, chatID int64, text string) error {
	return d.retry(ctx, "deliver", func(ctx context.Context) error {
		return d.next.Deliver(ctx, chatID, text)
	})
}

func (d *RetryDispatcher) Remind(ctx context.Context, chatID int64, message string) error {
	return d.retry(ctx, "remind", func(ctx context.Context) error {
		return d.next.Remind(ctx, chatID, message)
	})
}

func (d *RetryDispatcher) Warn(ctx context.Context, chatID, userID int64, reason string) error {
	return d.retry(ctx, "warn", func(ctx context.Context) error {
		return d.next.Warn(ctx, chatID, userID, reason)
	})
}

func (d *RetryDispatcher) WarnInactivity(ctx context.Context, chatID, userID int64, days int) error {
	return d.retry(ctx, "warn_inactivity", func(ctx context.Context) error {
		return d.next.WarnInactivity(ctx, chatID, userID, days)
	})
}

func (d *RetryDispatcher) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return d.retry(ctx, "delete_message", func(ctx context.Context) error {
		return d.next.DeleteMessage(ctx, chatID, messageID)
	})
}

func (d *RetryDispatcher) RemoveUser(ctx context.Context, chatID, userID int64) error {
	return d.retry(ctx, "remove_user", func(ctx context.Context) error {
		return d.next.RemoveUser(ctx, chatID, userID)
	})
}
