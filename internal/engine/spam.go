package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/models"
)

// checkSpam matches the message against the chat's filter set and applies
// the first matching entry: one strike per message plus the configured
// action. Returns true when the message matched. Called with the chat lock
// held. Chats with auto-moderation disabled are skipped entirely.
func (e *Engine) checkSpam(ctx context.Context, ev models.MessageEvent) bool {
	if !e.configBool(ctx, ev.ChatID, models.CfgAutoModeration, true) {
		return false
	}

	sctx, cancel := e.storeCtx(ctx)
	filters, err := e.store.ListFilters(sctx, ev.ChatID)
	cancel()
	if err != nil {
		e.logger.Error("Failed to load spam filters",
			zap.Error(err),
			zap.Int64("chat_id", ev.ChatID))
		return false
	}

	for _, f := range filters {
		if !f.Matches(ev.Text) {
			continue
		}
		e.applyFilter(ctx, ev, f)
		return true
	}
	return false
}

func (e *Engine) applyFilter(ctx context.Context, ev models.MessageEvent, f *models.SpamFilter) {
	now := e.clock.Now().UTC()

	sctx, cancel := e.storeCtx(ctx)
	strikes, err := e.store.AddStrike(sctx, ev.ChatID, ev.UserID, now)
	cancel()
	if err != nil {
		e.logger.Error("Failed to record strike",
			zap.Error(err),
			zap.Int64("chat_id", ev.ChatID),
			zap.Int64("user_id", ev.UserID))
	}

	e.logger.Info("Spam filter matched",
		zap.Int64("chat_id", ev.ChatID),
		zap.Int64("user_id", ev.UserID),
		zap.String("word", f.Word),
		zap.String("action", string(f.Action)),
		zap.Int("strikes", strikes))

	reason := fmt.Sprintf("message matched the filter word %q (strike %d)", f.Word, strikes)

	switch f.Action {
	case models.ActionDelete:
		if err := e.dispatch.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			e.logger.Warn("Failed to delete filtered message",
				zap.Error(err),
				zap.Int64("chat_id", ev.ChatID),
				zap.Int("message_id", ev.MessageID))
		}
		if err := e.dispatch.Warn(ctx, ev.ChatID, ev.UserID, reason); err != nil {
			e.logger.Warn("Failed to warn user", zap.Error(err), zap.Int64("chat_id", ev.ChatID))
		}
	case models.ActionRemove:
		if err := e.dispatch.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			e.logger.Warn("Failed to delete filtered message",
				zap.Error(err),
				zap.Int64("chat_id", ev.ChatID),
				zap.Int("message_id", ev.MessageID))
		}
		if err := e.dispatch.RemoveUser(ctx, ev.ChatID, ev.UserID); err != nil {
			e.logger.Warn("Failed to remove user", zap.Error(err), zap.Int64("chat_id", ev.ChatID))
		}
	default:
		if err := e.dispatch.Warn(ctx, ev.ChatID, ev.UserID, reason); err != nil {
			e.logger.Warn("Failed to warn user", zap.Error(err), zap.Int64("chat_id", ev.ChatID))
		}
	}
}

// AddFilter validates and stores a filter entry for a chat.
func (e *Engine) AddFilter(ctx context.Context, chatID int64, word string, mode models.FilterMode, action models.FilterAction) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return validationf("filter word must not be empty")
	}
	if mode != models.MatchSubstring && mode != models.MatchWholeWord {
		return validationf("unknown match mode %q", mode)
	}
	if !models.ValidFilterAction(string(action)) {
		return validationf("unknown filter action %q", action)
	}

	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.AddFilter(sctx, &models.SpamFilter{
		ChatID: chatID,
		Word:   word,
		Mode:   mode,
		Action: action,
	})
}

// RemoveFilter drops a filter word; reports whether it existed.
func (e *Engine) RemoveFilter(ctx context.Context, chatID int64, word string) (bool, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.RemoveFilter(sctx, chatID, strings.ToLower(strings.TrimSpace(word)))
}

// ListFilters returns a chat's filter set.
func (e *Engine) ListFilters(ctx context.Context, chatID int64) ([]*models.SpamFilter, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.ListFilters(sctx, chatID)
}

// Strikes returns the strike record for a user; zero-valued when clean.
func (e *Engine) Strikes(ctx context.Context, chatID, userID int64) (*models.SpamStrike, error) {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.GetStrikes(sctx, chatID, userID)
}

// ResetStrikes clears a user's strike count. Strikes never decay on their
// own; this is the only way down.
func (e *Engine) ResetStrikes(ctx context.Context, chatID, userID int64) error {
	sctx, cancel := e.storeCtx(ctx)
	defer cancel()
	return e.store.ResetStrikes(sctx, chatID, userID)
}
