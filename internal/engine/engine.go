package engine

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
)

// Options tune the engine. Zero values are replaced with defaults.
type Options struct {
	// DefaultQuoteInterval is used when a chat has no quote_interval set.
	DefaultQuoteInterval int
	// DefaultInactiveDays is the inactivity threshold before a warning.
	DefaultInactiveDays int
	// DefaultWarningHours is the grace period between warning and removal.
	DefaultWarningHours int
	// MaxDeliveryAttempts bounds reminder delivery retries across ticks.
	MaxDeliveryAttempts int
	// ClaimLease is how long a claimed-but-unfired reminder stays off the
	// due list before a later tick may retry it.
	ClaimLease time.Duration
	// StoreTimeout bounds every storage access.
	StoreTimeout time.Duration
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.DefaultQuoteInterval <= 0 {
		opts.DefaultQuoteInterval = 50
	}
	if opts.DefaultInactiveDays <= 0 {
		opts.DefaultInactiveDays = 7
	}
	if opts.DefaultWarningHours <= 0 {
		opts.DefaultWarningHours = 24
	}
	if opts.MaxDeliveryAttempts <= 0 {
		opts.MaxDeliveryAttempts = 3
	}
	if opts.ClaimLease <= 0 {
		opts.ClaimLease = 5 * time.Minute
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 5 * time.Second
	}
	return opts
}

// Engine is the background automation core: activity tracking, quote
// triggering, spam filtering and the two periodic scans (reminders,
// inactivity). All per-chat mutations are serialized through chat locks.
type Engine struct {
	store    storage.Storage
	dispatch Dispatcher
	clock    clockwork.Clock
	logger   *zap.Logger
	locks    *chatLocks
	opts     Options
}

func New(store storage.Storage, dispatch Dispatcher, clock clockwork.Clock, logger *zap.Logger, opts Options) *Engine {
	return &Engine{
		store:    store,
		dispatch: dispatch,
		clock:    clock,
		logger:   logger,
		locks:    newChatLocks(),
		opts:     opts.withDefaults(),
	}
}

// SetDispatcher installs the outbound action sink. Wiring is two-phase in
// main: the dispatcher needs the platform client, which needs the engine.
func (e *Engine) SetDispatcher(d Dispatcher) {
	e.dispatch = d
}

func (e *Engine) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.opts.StoreTimeout)
}

// HandleMessage processes one inbound message: updates the activity record,
// runs spam filtering and, for qualifying messages, advances the quote
// counter. Commands (leading slash) are ignored here.
func (e *Engine) HandleMessage(ctx context.Context, ev models.MessageEvent) {
	if strings.HasPrefix(ev.Text, "/") {
		return
	}

	unlock := e.locks.lock(ev.ChatID)
	defer unlock()

	ts := ev.Timestamp.UTC()
	if ts.IsZero() {
		ts = e.clock.Now().UTC()
	}

	sctx, cancel := e.storeCtx(ctx)
	err := e.store.TouchActivity(sctx, ev.ChatID, ev.UserID, ts)
	cancel()
	if err != nil {
		e.logger.Error("Failed to update activity",
			zap.Error(err),
			zap.Int64("chat_id", ev.ChatID),
			zap.Int64("user_id", ev.UserID))
	}

	if e.checkSpam(ctx, ev) {
		// A filtered message does not count toward the quote trigger.
		return
	}

	e.onQualifyingMessage(ctx, ev.ChatID)
}

// HandleMembership seeds an activity record for joining users and drops
// state for leaving ones.
func (e *Engine) HandleMembership(ctx context.Context, ev models.MembershipEvent) {
	unlock := e.locks.lock(ev.ChatID)
	defer unlock()

	ts := ev.Timestamp.UTC()
	if ts.IsZero() {
		ts = e.clock.Now().UTC()
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	var err error
	switch ev.Change {
	case models.MemberJoined:
		err = e.store.TouchActivity(sctx, ev.ChatID, ev.UserID, ts)
	case models.MemberLeft:
		err = e.store.DeleteActivity(sctx, ev.ChatID, ev.UserID)
	}
	if err != nil {
		e.logger.Error("Failed to apply membership change",
			zap.Error(err),
			zap.Int64("chat_id", ev.ChatID),
			zap.Int64("user_id", ev.UserID),
			zap.String("change", string(ev.Change)))
	}
}

// Activity returns the tracked record for a user, or nil if none exists.
func (e *Engine) Activity(ctx context.Context, chatID, userID int64) (*models.ActivityRecord, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	rec, err := e.store.GetActivity(sctx, chatID, userID)
	if err == storage.ErrNotFound {
		return nil, nil
	}
	return rec, err
}

func (e *Engine) configInt(ctx context.Context, chatID int64, key string, def int) int {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	raw, err := e.store.GetConfig(sctx, chatID, key, strconv.Itoa(def))
	if err != nil {
		e.logger.Warn("Failed to read chat config",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("key", key))
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func (e *Engine) configBool(ctx context.Context, chatID int64, key string, def bool) bool {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	raw, err := e.store.GetConfig(sctx, chatID, key, strconv.FormatBool(def))
	if err != nil {
		e.logger.Warn("Failed to read chat config",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.String("key", key))
		return def
	}
	return strings.EqualFold(raw, "true")
}

// SetQuoteInterval stores the quote trigger interval for a chat. The
// current counter value is intentionally left untouched.
func (e *Engine) SetQuoteInterval(ctx context.Context, chatID int64, interval int) error {
	if interval < 1 {
		return validationf("quote interval must be at least 1, got %d", interval)
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.SetConfig(sctx, chatID, models.CfgQuoteInterval, strconv.Itoa(interval))
}

// SetInactiveDays stores the inactivity threshold in days.
func (e *Engine) SetInactiveDays(ctx context.Context, chatID int64, days int) error {
	if days < 1 {
		return validationf("inactivity threshold must be at least 1 day, got %d", days)
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.SetConfig(sctx, chatID, models.CfgInactiveDays, strconv.Itoa(days))
}

// SetWarningHours stores the grace period between warning and removal.
func (e *Engine) SetWarningHours(ctx context.Context, chatID int64, hours int) error {
	if hours < 1 {
		return validationf("warning grace must be at least 1 hour, got %d", hours)
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.SetConfig(sctx, chatID, models.CfgWarningHours, strconv.Itoa(hours))
}

// SetInactiveEnabled toggles automatic inactivity management for a chat.
// Disabling keeps existing activity records and timestamps.
func (e *Engine) SetInactiveEnabled(ctx context.Context, chatID int64, enabled bool) error {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.SetConfig(sctx, chatID, models.CfgInactiveEnabled, strconv.FormatBool(enabled))
}

// SetAutoModeration toggles spam filtering for a chat.
func (e *Engine) SetAutoModeration(ctx context.Context, chatID int64, enabled bool) error {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.SetConfig(sctx, chatID, models.CfgAutoModeration, strconv.FormatBool(enabled))
}
