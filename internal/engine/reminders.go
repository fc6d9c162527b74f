package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
)

// Schedule validates and persists a reminder. One-off reminders need a fire
// time strictly in the future; weekly reminders get their first fire time
// computed as the next occurrence of weekday/minute after now.
func (e *Engine) Schedule(ctx context.Context, chatID, userID int64, message string, fireAt time.Time, rec models.Recurrence) (*models.Reminder, error) {
	if message == "" {
		return nil, validationf("reminder message must not be empty")
	}

	now := e.clock.Now().UTC()

	switch rec.Kind {
	case models.RecurrenceNone:
		if !fireAt.UTC().After(now) {
			return nil, validationf("reminder time %s is not in the future", fireAt.UTC().Format(time.RFC3339))
		}
		fireAt = fireAt.UTC()
	case models.RecurrenceWeekly:
		if rec.Weekday < time.Sunday || rec.Weekday > time.Saturday {
			return nil, validationf("invalid weekday %d", rec.Weekday)
		}
		if rec.MinuteOfDay < 0 || rec.MinuteOfDay >= 24*60 {
			return nil, validationf("invalid time of day: minute %d", rec.MinuteOfDay)
		}
		fireAt = models.NextWeekly(now, rec.Weekday, rec.MinuteOfDay)
	default:
		return nil, validationf("unknown recurrence %q", rec.Kind)
	}

	r := &models.Reminder{
		ChatID:     chatID,
		UserID:     userID,
		Message:    message,
		FireAt:     fireAt,
		Recurrence: rec,
		Active:     true,
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	if err := e.store.CreateReminder(sctx, r); err != nil {
		return nil, err
	}

	e.logger.Info("Reminder scheduled",
		zap.Int64("reminder_id", r.ID),
		zap.Int64("chat_id", chatID),
		zap.Time("fire_at", fireAt),
		zap.String("recurrence", string(rec.Kind)))
	return r, nil
}

// Cancel deactivates a reminder. Cancelling an already inactive or unknown
// reminder is a no-op.
func (e *Engine) Cancel(ctx context.Context, reminderID int64) error {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	r, err := e.store.GetReminder(sctx, reminderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if !r.Active {
		return nil
	}
	return e.store.DeactivateReminder(sctx, reminderID)
}

// UpcomingReminders lists a chat's active reminders in fire order.
func (e *Engine) UpcomingReminders(ctx context.Context, chatID int64, limit int) ([]*models.Reminder, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	reminders, err := e.store.ActiveReminders(sctx, chatID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(reminders) > limit {
		reminders = reminders[:limit]
	}
	return reminders, nil
}

// TickReminders fires all due reminders once. Each reminder is claimed
// before delivery so an overlapping or retried tick never fires it twice
// for the same fire time. Transient delivery failures leave the claim in
// place and the lease lets a later tick retry, up to MaxDeliveryAttempts;
// after that the reminder is advanced anyway and the miss is logged.
func (e *Engine) TickReminders(ctx context.Context, now time.Time) {
	now = now.UTC()

	sctx, cancel := e.storeCtx(ctx)
	due, err := e.store.DueReminders(sctx, now, now.Add(-e.opts.ClaimLease))
	cancel()
	if err != nil {
		e.logger.Error("Failed to load due reminders", zap.Error(err))
		return
	}

	for _, r := range due {
		e.fireReminder(ctx, r, now)
	}
}

func (e *Engine) fireReminder(ctx context.Context, r *models.Reminder, now time.Time) {
	token := uuid.NewString()

	sctx, cancel := e.storeCtx(ctx)
	err := e.store.ClaimReminder(sctx, r.ID, token, now)
	cancel()
	if err != nil {
		e.logger.Error("Failed to claim reminder",
			zap.Error(err),
			zap.Int64("reminder_id", r.ID))
		return
	}
	attempts := r.Attempts + 1

	if attempts > e.opts.MaxDeliveryAttempts {
		e.logger.Error("Reminder delivery dropped after repeated failures",
			zap.Int64("reminder_id", r.ID),
			zap.Int64("chat_id", r.ChatID),
			zap.Int("attempts", r.Attempts))
		e.advanceReminder(ctx, r)
		return
	}

	err = e.dispatch.Remind(ctx, r.ChatID, r.Message)
	switch {
	case errors.Is(err, ErrChatNotFound):
		e.logger.Warn("Deactivating reminder for missing chat",
			zap.Int64("reminder_id", r.ID),
			zap.Int64("chat_id", r.ChatID))
		e.deactivateReminder(ctx, r.ID)
		return
	case err != nil:
		// Leave the claim in place; the lease expiry lets a later tick
		// retry without risking a double fire.
		e.logger.Warn("Reminder delivery failed, will retry",
			zap.Error(err),
			zap.Int64("reminder_id", r.ID),
			zap.Int("attempt", attempts))
		return
	}

	e.advanceReminder(ctx, r)
}

func (e *Engine) advanceReminder(ctx context.Context, r *models.Reminder) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if r.Recurrence.Kind != models.RecurrenceWeekly {
		if err := e.store.DeactivateReminder(sctx, r.ID); err != nil {
			e.logger.Error("Failed to deactivate reminder",
				zap.Error(err),
				zap.Int64("reminder_id", r.ID))
		}
		return
	}

	// The next fire time advances from the fire time just processed, not
	// from now, so a backlog never causes catch-up storms.
	next := models.NextWeekly(r.FireAt, r.Recurrence.Weekday, r.Recurrence.MinuteOfDay)
	if err := e.store.AdvanceReminder(sctx, r.ID, next); err != nil {
		e.logger.Error("Failed to advance recurring reminder",
			zap.Error(err),
			zap.Int64("reminder_id", r.ID))
		return
	}

	e.logger.Info("Recurring reminder advanced",
		zap.Int64("reminder_id", r.ID),
		zap.Time("next_fire_at", next))
}

func (e *Engine) deactivateReminder(ctx context.Context, id int64) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()

	if err := e.store.DeactivateReminder(sctx, id); err != nil {
		e.logger.Error("Failed to deactivate reminder",
			zap.Error(err),
			zap.Int64("reminder_id", id))
	}
}
