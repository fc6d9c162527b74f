package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
)

// TickInactivity evaluates the Active -> Warned -> Removed transitions for
// every tracked chat. A storage failure aborts the scan for that chat only.
func (e *Engine) TickInactivity(ctx context.Context, now time.Time) {
	now = now.UTC()

	sctx, cancel := e.storeCtx(ctx)
	chats, err := e.store.ActivityChats(sctx)
	cancel()
	if err != nil {
		e.logger.Error("Failed to list chats for inactivity scan", zap.Error(err))
		return
	}

	for _, chatID := range chats {
		if err := e.scanChatInactivity(ctx, chatID, now); err != nil {
			e.logger.Error("Inactivity scan failed for chat",
				zap.Error(err),
				zap.Int64("chat_id", chatID))
		}
	}
}

func (e *Engine) scanChatInactivity(ctx context.Context, chatID int64, now time.Time) error {
	if !e.configBool(ctx, chatID, models.CfgInactiveEnabled, true) {
		return nil
	}

	threshold := time.Duration(e.configInt(ctx, chatID, models.CfgInactiveDays, e.opts.DefaultInactiveDays)) * 24 * time.Hour
	grace := time.Duration(e.configInt(ctx, chatID, models.CfgWarningHours, e.opts.DefaultWarningHours)) * time.Hour

	sctx, cancel := e.storeCtx(ctx)
	records, err := e.store.ChatActivity(sctx, chatID)
	cancel()
	if err != nil {
		return fmt.Errorf("loading activity records: %w", err)
	}

	for _, rec := range records {
		unlock := e.locks.lock(chatID)
		err := e.evaluateUnderLock(ctx, rec, now, threshold, grace)
		unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// evaluateUnderLock re-reads the record while holding the chat lock: the
// scan snapshot may predate a message that reset the user's state, and a
// warning or removal must never act on that stale view.
func (e *Engine) evaluateUnderLock(ctx context.Context, rec *models.ActivityRecord, now time.Time, threshold, grace time.Duration) error {
	sctx, cancel := e.storeCtx(ctx)
	fresh, err := e.store.GetActivity(sctx, rec.ChatID, rec.UserID)
	cancel()
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reloading activity record: %w", err)
	}
	return e.evaluateRecord(ctx, fresh, now, threshold, grace)
}

func (e *Engine) evaluateRecord(ctx context.Context, rec *models.ActivityRecord, now time.Time, threshold, grace time.Duration) error {
	switch {
	case rec.WarnedAt == nil && now.Sub(rec.LastActivity) >= threshold:
		return e.warnInactive(ctx, rec, now, threshold)
	case rec.WarnedAt != nil && now.Sub(*rec.WarnedAt) >= grace:
		return e.removeInactive(ctx, rec)
	}
	return nil
}

func (e *Engine) warnInactive(ctx context.Context, rec *models.ActivityRecord, now time.Time, threshold time.Duration) error {
	days := int(threshold / (24 * time.Hour))

	err := e.dispatch.WarnInactivity(ctx, rec.ChatID, rec.UserID, days)
	switch {
	case errors.Is(err, ErrChatNotFound):
		// Chat is gone; drop the record instead of retrying forever.
		return e.dropActivity(ctx, rec)
	case err != nil:
		// Warned state is only entered after a delivered warning; the next
		// tick retries.
		e.logger.Warn("Inactivity warning delivery failed",
			zap.Error(err),
			zap.Int64("chat_id", rec.ChatID),
			zap.Int64("user_id", rec.UserID))
		return nil
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	if err := e.store.MarkWarned(sctx, rec.ChatID, rec.UserID, now); err != nil {
		return fmt.Errorf("marking user warned: %w", err)
	}

	e.logger.Info("Inactive user warned",
		zap.Int64("chat_id", rec.ChatID),
		zap.Int64("user_id", rec.UserID),
		zap.Time("last_activity", rec.LastActivity))
	return nil
}

func (e *Engine) removeInactive(ctx context.Context, rec *models.ActivityRecord) error {
	err := e.dispatch.RemoveUser(ctx, rec.ChatID, rec.UserID)
	switch {
	case errors.Is(err, ErrChatNotFound):
		return e.dropActivity(ctx, rec)
	case err != nil:
		e.logger.Warn("Inactive user removal failed",
			zap.Error(err),
			zap.Int64("chat_id", rec.ChatID),
			zap.Int64("user_id", rec.UserID))
		return nil
	}

	e.logger.Info("Inactive user removed",
		zap.Int64("chat_id", rec.ChatID),
		zap.Int64("user_id", rec.UserID))
	return e.dropActivity(ctx, rec)
}

func (e *Engine) dropActivity(ctx context.Context, rec *models.ActivityRecord) error {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.store.DeleteActivity(sctx, rec.ChatID, rec.UserID); err != nil {
		return fmt.Errorf("deleting activity record: %w", err)
	}
	return nil
}
