package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/engine"
	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
	"github.com/xaenox/hustle-bot/internal/theme"
)

// TelegramDispatcher forwards engine actions to Telegram. Warnings and
// removal notices are rendered in the chat's configured tone.
type TelegramDispatcher struct {
	api    *tgbotapi.BotAPI
	config storage.ConfigStore
	logger *zap.Logger
}

func NewTelegramDispatcher(api *tgbotapi.BotAPI, config storage.ConfigStore, logger *zap.Logger) *TelegramDispatcher {
	return &TelegramDispatcher{api: api, config: config, logger: logger}
}

func (d *TelegramDispatcher) renderer(ctx context.Context, chatID int64) *theme.Renderer {
	style, err := d.config.GetConfig(ctx, chatID, models.CfgStyle, string(theme.ToneSerious))
	if err != nil {
		d.logger.Warn("Failed to read chat style", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return theme.NewRenderer(theme.ParseTone(style))
}

// classify maps Telegram API failures onto the engine's transient/permanent
// split.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"chat not found", "bot was kicked", "user not found", "chat was deleted"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", engine.ErrChatNotFound, err)
		}
	}
	return err
}

func (d *TelegramDispatcher) Deliver(ctx context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := d.api.Send(msg)
	return classify(err)
}

func (d *TelegramDispatcher) Remind(ctx context.Context, chatID int64, message string) error {
	msg := tgbotapi.NewMessage(chatID, d.renderer(ctx, chatID).Reminder(message))
	_, err := d.api.Send(msg)
	return classify(err)
}

func (d *TelegramDispatcher) Warn(ctx context.Context, chatID, userID int64, reason string) error {
	text := d.renderer(ctx, chatID).SpamWarning(reason)
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("[user %d] %s", userID, text))
	_, err := d.api.Send(msg)
	return classify(err)
}

func (d *TelegramDispatcher) WarnInactivity(ctx context.Context, chatID, userID int64, days int) error {
	text := d.renderer(ctx, chatID).InactivityWarning(days)
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("[user %d] %s", userID, text))
	_, err := d.api.Send(msg)
	return classify(err)
}

func (d *TelegramDispatcher) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := d.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return classify(err)
}

func (d *TelegramDispatcher) RemoveUser(ctx context.Context, chatID, userID int64) error {
	_, err := d.api.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	})
	if err := classify(err); err != nil {
		return err
	}

	notice := d.renderer(ctx, chatID).Removal()
	if _, err := d.api.Send(tgbotapi.NewMessage(chatID, notice)); err != nil {
		// Removal already happened; a lost notice is not worth a retry.
		d.logger.Warn("Failed to announce removal", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return nil
}
