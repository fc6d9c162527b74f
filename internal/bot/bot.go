package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/engine"
	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
	"github.com/xaenox/hustle-bot/internal/theme"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	engine   *engine.Engine
	storage  storage.Storage
	logger   *zap.Logger
	workers  *chatWorkers
	commands map[string]command
}

func New(token string, store storage.Storage, eng *engine.Engine, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		api:     api,
		engine:  eng,
		storage: store,
		logger:  logger,
		workers: newChatWorkers(64),
	}
	b.registerCommands()
	return b, nil
}

// API exposes the underlying client so main can build the dispatcher.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// Start consumes updates until ctx is cancelled. Messages are enqueued per
// chat so one chat's events are handled in arrival order while chats
// proceed in parallel.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.workers.close()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.route(ctx, update.Message)
		}
	}
}

func (b *Bot) route(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if len(message.NewChatMembers) > 0 {
		members := message.NewChatMembers
		b.workers.submit(chatID, func() {
			b.handleNewMembers(ctx, chatID, members)
		})
		return
	}

	if message.LeftChatMember != nil {
		left := message.LeftChatMember
		b.workers.submit(chatID, func() {
			b.engine.HandleMembership(ctx, models.MembershipEvent{
				ChatID:    chatID,
				UserID:    left.ID,
				UserName:  left.FirstName,
				Change:    models.MemberLeft,
				Timestamp: time.Now().UTC(),
			})
		})
		return
	}

	if message.From == nil || message.From.IsBot {
		return
	}

	if message.IsCommand() {
		b.workers.submit(chatID, func() {
			b.handleCommand(ctx, message)
		})
		return
	}

	text := message.Text
	if text == "" && message.Caption != "" {
		text = message.Caption
	}
	ev := models.MessageEvent{
		ChatID:    chatID,
		UserID:    message.From.ID,
		MessageID: message.MessageID,
		UserName:  message.From.FirstName,
		Text:      text,
		Timestamp: time.Unix(int64(message.Date), 0).UTC(),
	}
	b.workers.submit(chatID, func() {
		b.engine.HandleMessage(ctx, ev)
	})
}

func (b *Bot) handleNewMembers(ctx context.Context, chatID int64, members []tgbotapi.User) {
	custom, err := b.storage.GetConfig(ctx, chatID, models.CfgWelcomeMessage, "")
	if err != nil {
		b.logger.Warn("Failed to read welcome message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	renderer := b.renderer(ctx, chatID)

	for _, member := range members {
		if member.IsBot {
			continue
		}

		b.engine.HandleMembership(ctx, models.MembershipEvent{
			ChatID:    chatID,
			UserID:    member.ID,
			UserName:  member.FirstName,
			Change:    models.MemberJoined,
			Timestamp: time.Now().UTC(),
		})

		b.send(chatID, renderer.Welcome(custom, member.FirstName))
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	cmd, ok := b.commands[message.Command()]
	if !ok {
		b.send(message.Chat.ID, "Unknown command. Use /help to see available commands.")
		return
	}

	if cmd.adminOnly && !b.isAdmin(message) {
		b.send(message.Chat.ID, "Only chat administrators can use this command.")
		return
	}

	args := strings.Fields(message.CommandArguments())
	cmd.handler(ctx, message, args)
}

func (b *Bot) isAdmin(message *tgbotapi.Message) bool {
	if message.Chat.IsPrivate() {
		return true
	}

	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: message.Chat.ID,
			UserID: message.From.ID,
		},
	})
	if err != nil {
		b.logger.Error("Failed to check admin status",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID),
			zap.Int64("user_id", message.From.ID))
		return false
	}
	return member.Status == "creator" || member.Status == "administrator"
}

func (b *Bot) renderer(ctx context.Context, chatID int64) *theme.Renderer {
	style, err := b.storage.GetConfig(ctx, chatID, models.CfgStyle, string(theme.ToneSerious))
	if err != nil {
		b.logger.Warn("Failed to read chat style", zap.Error(err), zap.Int64("chat_id", chatID))
	}
	return theme.NewRenderer(theme.ParseTone(style))
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) reply(message *tgbotapi.Message, text string) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyToMessageID = message.MessageID
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}
