package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
)

// onQualifyingMessage advances the chat's quote counter and, when the
// configured interval is reached, sends a random quote and resets the
// counter. Called with the chat lock held.
func (e *Engine) onQualifyingMessage(ctx context.Context, chatID int64) {
	interval := e.configInt(ctx, chatID, models.CfgQuoteInterval, e.opts.DefaultQuoteInterval)
	if interval < 1 {
		interval = e.opts.DefaultQuoteInterval
	}

	sctx, cancel := e.storeCtx(ctx)
	count, err := e.store.IncrementQuoteCounter(sctx, chatID)
	cancel()
	if err != nil {
		e.logger.Error("Failed to increment quote counter",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		return
	}

	if count < interval {
		return
	}

	sctx, cancel = e.storeCtx(ctx)
	err = e.store.ResetQuoteCounter(sctx, chatID)
	cancel()
	if err != nil {
		e.logger.Error("Failed to reset quote counter",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		return
	}

	sctx, cancel = e.storeCtx(ctx)
	quote, err := e.store.RandomQuote(sctx, chatID)
	cancel()
	if errors.Is(err, storage.ErrNoQuotes) {
		e.logger.Info("Quote interval reached but no quotes available",
			zap.Int64("chat_id", chatID))
		return
	}
	if err != nil {
		e.logger.Error("Failed to pick a quote",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
		return
	}

	if err := e.dispatch.Deliver(ctx, chatID, quote.Text); err != nil {
		e.logger.Error("Failed to deliver interval quote",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
			zap.Int64("quote_id", quote.ID))
		return
	}

	e.logger.Info("Interval quote sent",
		zap.Int64("chat_id", chatID),
		zap.Int("interval", interval))
}
