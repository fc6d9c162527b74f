package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/engine"
	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
)

type command struct {
	name      string
	help      string
	adminOnly bool
	handler   func(ctx context.Context, msg *tgbotapi.Message, args []string)
}

func (b *Bot) registerCommands() {
	cmds := []command{
		{name: "start", help: "Introduce the bot", handler: b.handleStart},
		{name: "help", help: "Show available commands", handler: b.handleHelp},
		{name: "hustle", help: "Send a random motivational quote", handler: b.handleHustle},
		{name: "addhustle", help: "Add a quote: /addhustle text", adminOnly: true, handler: b.handleAddHustle},
		{name: "listquotes", help: "List this chat's quotes", handler: b.handleListQuotes},
		{name: "deletequote", help: "Delete a quote: /deletequote id", adminOnly: true, handler: b.handleDeleteQuote},
		{name: "clearquotes", help: "Delete all quotes: /clearquotes confirm", adminOnly: true, handler: b.handleClearQuotes},
		{name: "setquoteinterval", help: "Show or set the quote interval: /setquoteinterval [n]", adminOnly: true, handler: b.handleSetQuoteInterval},
		{name: "save", help: "Save a message: reply with /save, or /save text", handler: b.handleSave},
		{name: "savedmessages", help: "List this chat's saved messages", handler: b.handleSavedMessages},
		{name: "tag", help: "Tag a message: reply with /tag label", handler: b.handleTag},
		{name: "searchtag", help: "Find tagged messages: /searchtag label", handler: b.handleSearchTag},
		{name: "rules", help: "Show the group rules", handler: b.handleRules},
		{name: "setrules", help: "Set the group rules: /setrules text", adminOnly: true, handler: b.handleSetRules},
		{name: "remind", help: "Schedule a reminder: /remind today|tomorrow|DD/MM HH:MM text, or /remind weekly WEEKDAY HH:MM text", handler: b.handleRemind},
		{name: "reminders", help: "List upcoming reminders", handler: b.handleReminders},
		{name: "cancelreminder", help: "Cancel a reminder: /cancelreminder id", handler: b.handleCancelReminder},
		{name: "filter", help: "Manage spam filters: /filter add|remove|list", adminOnly: true, handler: b.handleFilter},
		{name: "strikes", help: "Show your strike count", handler: b.handleStrikes},
		{name: "resetstrikes", help: "Reset a user's strikes: /resetstrikes user_id", adminOnly: true, handler: b.handleResetStrikes},
		{name: "setinactivedays", help: "Set the inactivity threshold in days", adminOnly: true, handler: b.handleSetInactiveDays},
		{name: "setgracehours", help: "Set the warning grace period in hours", adminOnly: true, handler: b.handleSetGraceHours},
		{name: "setinactive", help: "Toggle inactivity management: /setinactive on|off", adminOnly: true, handler: b.handleSetInactive},
		{name: "setautomod", help: "Toggle spam moderation: /setautomod on|off", adminOnly: true, handler: b.handleSetAutoMod},
		{name: "setstyle", help: "Set message style: /setstyle serious|fun", adminOnly: true, handler: b.handleSetStyle},
		{name: "setwelcome", help: "Set the welcome message ({name} is substituted)", adminOnly: true, handler: b.handleSetWelcome},
	}

	b.commands = make(map[string]command, len(cmds))
	for _, c := range cmds {
		b.commands[c.name] = c
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message, args []string) {
	b.send(msg.Chat.ID, `I keep this group in shape: scheduled reminders, motivational quotes, spam filtering and inactivity management.

Use /help to see all available commands.`)
}

func (b *Bot) handleHelp(ctx context.Context, msg *tgbotapi.Message, args []string) {
	names := make([]string, 0, len(b.commands))
	for name := range b.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "/%s - %s\n", name, b.commands[name].help)
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleHustle(ctx context.Context, msg *tgbotapi.Message, args []string) {
	quote, err := b.storage.RandomQuote(ctx, msg.Chat.ID)
	if errors.Is(err, storage.ErrNoQuotes) {
		b.reply(msg, "No quotes yet. Add one with /addhustle.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to fetch quote", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't fetch a quote. Please try again.")
		return
	}
	b.send(msg.Chat.ID, b.renderer(ctx, msg.Chat.ID).Quote(quote.Text))
}

func (b *Bot) handleAddHustle(ctx context.Context, msg *tgbotapi.Message, args []string) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg, "Usage: /addhustle quote text")
		return
	}

	id, err := b.storage.AddQuote(ctx, msg.Chat.ID, text)
	if err != nil {
		b.logger.Error("Failed to add quote", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't save the quote.")
		return
	}
	b.reply(msg, fmt.Sprintf("Quote #%d added.", id))
}

func (b *Bot) handleListQuotes(ctx context.Context, msg *tgbotapi.Message, args []string) {
	quotes, err := b.storage.ListQuotes(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to list quotes", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't list the quotes.")
		return
	}
	if len(quotes) == 0 {
		b.reply(msg, "No quotes yet. Add one with /addhustle.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Quotes:\n")
	for _, q := range quotes {
		fmt.Fprintf(&sb, "%d. %s\n", q.ID, preview(q.Text, 100))
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleDeleteQuote(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) != 1 {
		b.reply(msg, "Usage: /deletequote id")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, "The quote id must be a number.")
		return
	}

	deleted, err := b.storage.DeleteQuote(ctx, msg.Chat.ID, id)
	if err != nil {
		b.logger.Error("Failed to delete quote", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't delete the quote.")
		return
	}
	if !deleted {
		b.reply(msg, fmt.Sprintf("Quote #%d does not exist.", id))
		return
	}
	b.reply(msg, fmt.Sprintf("Quote #%d deleted.", id))
}

func (b *Bot) handleSetQuoteInterval(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		current, err := b.storage.GetConfig(ctx, msg.Chat.ID, models.CfgQuoteInterval, "50")
		if err != nil {
			b.logger.Error("Failed to read quote interval", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		}
		b.reply(msg, fmt.Sprintf("A quote is sent every %s messages. Change it with /setquoteinterval n.", current))
		return
	}

	interval, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(msg, "The interval must be a number.")
		return
	}
	if err := b.engine.SetQuoteInterval(ctx, msg.Chat.ID, interval); err != nil {
		b.replyError(msg, err)
		return
	}
	b.reply(msg, fmt.Sprintf("A quote will be sent every %d messages.", interval))
}

func (b *Bot) handleClearQuotes(ctx context.Context, msg *tgbotapi.Message, args []string) {
	quotes, err := b.storage.ListQuotes(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to list quotes", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't check the quotes.")
		return
	}
	if len(quotes) == 0 {
		b.reply(msg, "There are no quotes to clear.")
		return
	}

	if len(args) == 0 || !strings.EqualFold(args[0], "confirm") {
		b.reply(msg, fmt.Sprintf("This will delete all %d quotes. Send /clearquotes confirm to proceed.", len(quotes)))
		return
	}

	deleted, err := b.storage.ClearQuotes(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to clear quotes", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't clear the quotes.")
		return
	}
	b.reply(msg, fmt.Sprintf("%d quotes deleted.", deleted))
}

const (
	minSavedTextLen = 5
	maxSavedTextLen = 1000
)

func (b *Bot) handleSave(ctx context.Context, msg *tgbotapi.Message, args []string) {
	saved := &models.SavedMessage{
		ChatID:  msg.Chat.ID,
		SavedBy: msg.From.ID,
	}

	switch {
	case msg.ReplyToMessage != nil:
		saved.MessageID = msg.ReplyToMessage.MessageID
		saved.Content = repliedContent(msg.ReplyToMessage)
	case len(args) > 0:
		text := strings.TrimSpace(msg.CommandArguments())
		if len(text) < minSavedTextLen {
			b.reply(msg, fmt.Sprintf("The text is too short to save; use at least %d characters.", minSavedTextLen))
			return
		}
		if len(text) > maxSavedTextLen {
			b.reply(msg, fmt.Sprintf("The text is too long to save; keep it under %d characters.", maxSavedTextLen))
			return
		}
		saved.MessageID = msg.MessageID
		saved.Content = text
	default:
		b.reply(msg, "Reply to a message with /save, or use /save text.")
		return
	}

	if err := b.storage.SaveMessage(ctx, saved); err != nil {
		b.logger.Error("Failed to save message", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't save the message.")
		return
	}
	b.reply(msg, fmt.Sprintf("Message saved.\n\nContent: %s", preview(saved.Content, 100)))
}

func (b *Bot) handleSavedMessages(ctx context.Context, msg *tgbotapi.Message, args []string) {
	saved, err := b.storage.SavedMessages(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to list saved messages", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't list the saved messages.")
		return
	}
	if len(saved) == 0 {
		b.reply(msg, "No saved messages yet. Reply to a message with /save to keep it.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Saved messages:\n")
	for i, m := range saved {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, m.CreatedAt.Format("02 Jan 15:04"), preview(m.Content, 150))
	}
	fmt.Fprintf(&sb, "\nTotal: %d saved messages.", len(saved))
	b.send(msg.Chat.ID, sb.String())
}

const (
	minTagLen = 2
	maxTagLen = 50
)

func (b *Bot) handleTag(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if msg.ReplyToMessage == nil {
		b.reply(msg, "Reply to the message you want to tag and use /tag label.")
		return
	}
	if len(args) == 0 {
		b.reply(msg, "Usage: reply to a message with /tag label")
		return
	}

	tag := strings.ToLower(strings.TrimSpace(strings.Join(args, " ")))
	if len(tag) < minTagLen {
		b.reply(msg, fmt.Sprintf("The tag is too short; use at least %d characters.", minTagLen))
		return
	}
	if len(tag) > maxTagLen {
		b.reply(msg, fmt.Sprintf("The tag is too long; keep it under %d characters.", maxTagLen))
		return
	}

	saved := &models.SavedMessage{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ReplyToMessage.MessageID,
		SavedBy:   msg.From.ID,
		Content:   repliedContent(msg.ReplyToMessage),
		Tag:       tag,
	}
	if err := b.storage.SaveMessage(ctx, saved); err != nil {
		b.logger.Error("Failed to tag message", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't tag the message.")
		return
	}
	b.reply(msg, fmt.Sprintf("Message tagged as %q.\n\nContent: %s", tag, preview(saved.Content, 100)))
}

func (b *Bot) handleSearchTag(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg, "Usage: /searchtag label")
		return
	}
	tag := strings.ToLower(strings.TrimSpace(strings.Join(args, " ")))

	messages, err := b.storage.MessagesByTag(ctx, msg.Chat.ID, tag)
	if err != nil {
		b.logger.Error("Failed to search tagged messages", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't search the tagged messages.")
		return
	}
	if len(messages) == 0 {
		b.reply(msg, fmt.Sprintf("No messages tagged %q.", tag))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Messages tagged %q:\n", tag)
	for i, m := range messages {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, m.CreatedAt.Format("02 Jan 15:04"), preview(m.Content, 150))
	}
	fmt.Fprintf(&sb, "\nTotal: %d messages with tag %q.", len(messages), tag)
	b.send(msg.Chat.ID, sb.String())
}

const defaultRules = `Group rules:
1. Work hard - effort and dedication are valued here.
2. No spam - respect everyone's space.
3. Stay active - long silences get you warned, then removed.
4. Respect the family - disagreements stay civil.`

func (b *Bot) handleRules(ctx context.Context, msg *tgbotapi.Message, args []string) {
	rules, err := b.storage.GetConfig(ctx, msg.Chat.ID, models.CfgRules, defaultRules)
	if err != nil {
		b.logger.Error("Failed to read rules", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
	}
	b.send(msg.Chat.ID, rules)
}

func (b *Bot) handleSetRules(ctx context.Context, msg *tgbotapi.Message, args []string) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg, "Usage: /setrules rules text")
		return
	}
	if err := b.storage.SetConfig(ctx, msg.Chat.ID, models.CfgRules, text); err != nil {
		b.logger.Error("Failed to store rules", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't store the rules.")
		return
	}
	b.reply(msg, "Group rules updated.")
}

// repliedContent extracts the text worth archiving from a replied-to
// message, falling back to a marker for media without captions.
func repliedContent(msg *tgbotapi.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	if msg.Caption != "" {
		return msg.Caption
	}
	return "[media message]"
}

func preview(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit-3] + "..."
}

func (b *Bot) handleRemind(ctx context.Context, msg *tgbotapi.Message, args []string) {
	fireAt, rec, text, err := parseRemind(args, time.Now())
	if err != nil {
		b.reply(msg, err.Error())
		return
	}

	r, err := b.engine.Schedule(ctx, msg.Chat.ID, msg.From.ID, text, fireAt, rec)
	if err != nil {
		b.replyError(msg, err)
		return
	}

	if r.Recurrence.Kind == models.RecurrenceWeekly {
		b.reply(msg, fmt.Sprintf("Reminder #%d set for every %s. First fire: %s UTC.",
			r.ID, r.Recurrence.Weekday, r.FireAt.Format("Mon 02 Jan 15:04")))
		return
	}
	b.reply(msg, fmt.Sprintf("Reminder #%d set for %s UTC.", r.ID, r.FireAt.Format("Mon 02 Jan 15:04")))
}

func (b *Bot) handleReminders(ctx context.Context, msg *tgbotapi.Message, args []string) {
	reminders, err := b.engine.UpcomingReminders(ctx, msg.Chat.ID, 10)
	if err != nil {
		b.logger.Error("Failed to list reminders", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't list the reminders.")
		return
	}
	if len(reminders) == 0 {
		b.reply(msg, "No upcoming reminders. Schedule one with /remind.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Upcoming reminders:\n")
	for _, r := range reminders {
		when := r.FireAt.Format("Mon 02 Jan 15:04")
		if r.Recurrence.Kind == models.RecurrenceWeekly {
			fmt.Fprintf(&sb, "#%d every %s at %s UTC: %s\n", r.ID, r.Recurrence.Weekday, r.FireAt.Format("15:04"), r.Message)
		} else {
			fmt.Fprintf(&sb, "#%d at %s UTC: %s\n", r.ID, when, r.Message)
		}
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleCancelReminder(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) != 1 {
		b.reply(msg, "Usage: /cancelreminder id")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, "The reminder id must be a number.")
		return
	}

	if err := b.engine.Cancel(ctx, id); err != nil {
		b.logger.Error("Failed to cancel reminder", zap.Error(err), zap.Int64("reminder_id", id))
		b.reply(msg, "Sorry, I couldn't cancel the reminder.")
		return
	}
	b.reply(msg, fmt.Sprintf("Reminder #%d cancelled.", id))
}

func (b *Bot) handleFilter(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg, `Spam filter commands:
/filter add word [warn|delete|remove] [substring|whole_word]
/filter remove word
/filter list`)
		return
	}

	switch strings.ToLower(args[0]) {
	case "add":
		b.handleFilterAdd(ctx, msg, args[1:])
	case "remove":
		b.handleFilterRemove(ctx, msg, args[1:])
	case "list":
		b.handleFilterList(ctx, msg)
	default:
		b.reply(msg, fmt.Sprintf("Unknown subcommand %q. Use /filter add, /filter remove or /filter list.", args[0]))
	}
}

func (b *Bot) handleFilterAdd(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) == 0 {
		b.reply(msg, "Usage: /filter add word [warn|delete|remove] [substring|whole_word]")
		return
	}

	word := args[0]
	action := models.ActionWarn
	mode := models.MatchSubstring
	if len(args) >= 2 {
		action = models.FilterAction(strings.ToLower(args[1]))
	}
	if len(args) >= 3 {
		mode = models.FilterMode(strings.ToLower(args[2]))
	}

	if err := b.engine.AddFilter(ctx, msg.Chat.ID, word, mode, action); err != nil {
		b.replyError(msg, err)
		return
	}
	b.reply(msg, fmt.Sprintf("Filter added: %q (action: %s, match: %s).", strings.ToLower(word), action, mode))
}

func (b *Bot) handleFilterRemove(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) != 1 {
		b.reply(msg, "Usage: /filter remove word")
		return
	}

	removed, err := b.engine.RemoveFilter(ctx, msg.Chat.ID, args[0])
	if err != nil {
		b.logger.Error("Failed to remove filter", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't remove the filter.")
		return
	}
	if !removed {
		b.reply(msg, fmt.Sprintf("%q was not in the filter list.", strings.ToLower(args[0])))
		return
	}
	b.reply(msg, fmt.Sprintf("Filter %q removed.", strings.ToLower(args[0])))
}

func (b *Bot) handleFilterList(ctx context.Context, msg *tgbotapi.Message) {
	filters, err := b.engine.ListFilters(ctx, msg.Chat.ID)
	if err != nil {
		b.logger.Error("Failed to list filters", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't list the filters.")
		return
	}
	if len(filters) == 0 {
		b.reply(msg, "No filter words configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Filtered words:\n")
	for i, f := range filters {
		fmt.Fprintf(&sb, "%d. %q (action: %s, match: %s)\n", i+1, f.Word, f.Action, f.Mode)
	}
	b.send(msg.Chat.ID, sb.String())
}

func (b *Bot) handleStrikes(ctx context.Context, msg *tgbotapi.Message, args []string) {
	strikes, err := b.engine.Strikes(ctx, msg.Chat.ID, msg.From.ID)
	if err != nil {
		b.logger.Error("Failed to read strikes", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't read your strikes.")
		return
	}
	if strikes.Strikes == 0 {
		b.reply(msg, "You have no strikes. Keep it that way.")
		return
	}
	b.reply(msg, fmt.Sprintf("You have %d strike(s). Last one: %s UTC.",
		strikes.Strikes, strikes.LastStrikeAt.Format("02 Jan 15:04")))
}

func (b *Bot) handleResetStrikes(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) != 1 {
		b.reply(msg, "Usage: /resetstrikes user_id")
		return
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(msg, "The user id must be a number.")
		return
	}

	if err := b.engine.ResetStrikes(ctx, msg.Chat.ID, userID); err != nil {
		b.logger.Error("Failed to reset strikes", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't reset the strikes.")
		return
	}
	b.reply(msg, fmt.Sprintf("Strikes reset for user %d.", userID))
}

func (b *Bot) handleSetInactiveDays(ctx context.Context, msg *tgbotapi.Message, args []string) {
	b.handleIntSetting(ctx, msg, args, "days", b.engine.SetInactiveDays,
		"Users inactive for %d days will be warned.")
}

func (b *Bot) handleSetGraceHours(ctx context.Context, msg *tgbotapi.Message, args []string) {
	b.handleIntSetting(ctx, msg, args, "hours", b.engine.SetWarningHours,
		"Warned users get %d hours to show up before removal.")
}

func (b *Bot) handleIntSetting(ctx context.Context, msg *tgbotapi.Message, args []string, unit string,
	set func(context.Context, int64, int) error, confirmation string) {
	if len(args) != 1 {
		b.reply(msg, fmt.Sprintf("Usage: /%s %s", msg.Command(), unit))
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		b.reply(msg, fmt.Sprintf("The number of %s must be a number.", unit))
		return
	}
	if err := set(ctx, msg.Chat.ID, n); err != nil {
		b.replyError(msg, err)
		return
	}
	b.reply(msg, fmt.Sprintf(confirmation, n))
}

func (b *Bot) handleSetInactive(ctx context.Context, msg *tgbotapi.Message, args []string) {
	b.handleToggle(ctx, msg, args, b.engine.SetInactiveEnabled, "Inactivity management")
}

func (b *Bot) handleSetAutoMod(ctx context.Context, msg *tgbotapi.Message, args []string) {
	b.handleToggle(ctx, msg, args, b.engine.SetAutoModeration, "Spam moderation")
}

func (b *Bot) handleToggle(ctx context.Context, msg *tgbotapi.Message, args []string,
	set func(context.Context, int64, bool) error, what string) {
	if len(args) != 1 {
		b.reply(msg, fmt.Sprintf("Usage: /%s on|off", msg.Command()))
		return
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		b.reply(msg, err.Error())
		return
	}
	if err := set(ctx, msg.Chat.ID, enabled); err != nil {
		b.logger.Error("Failed to store setting", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't store the setting.")
		return
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	b.reply(msg, fmt.Sprintf("%s %s.", what, state))
}

func (b *Bot) handleSetStyle(ctx context.Context, msg *tgbotapi.Message, args []string) {
	if len(args) != 1 || (args[0] != "serious" && args[0] != "fun") {
		b.reply(msg, "Usage: /setstyle serious|fun")
		return
	}
	if err := b.storage.SetConfig(ctx, msg.Chat.ID, models.CfgStyle, args[0]); err != nil {
		b.logger.Error("Failed to store style", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't store the style.")
		return
	}
	b.reply(msg, fmt.Sprintf("Message style set to %s.", args[0]))
}

func (b *Bot) handleSetWelcome(ctx context.Context, msg *tgbotapi.Message, args []string) {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg, "Usage: /setwelcome message ({name} is substituted with the member's name)")
		return
	}
	if err := b.storage.SetConfig(ctx, msg.Chat.ID, models.CfgWelcomeMessage, text); err != nil {
		b.logger.Error("Failed to store welcome message", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
		b.reply(msg, "Sorry, I couldn't store the welcome message.")
		return
	}
	b.reply(msg, "Welcome message updated.")
}

// replyError turns validation failures into user-facing replies and logs
// everything else.
func (b *Bot) replyError(msg *tgbotapi.Message, err error) {
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		b.reply(msg, ve.Reason+".")
		return
	}
	b.logger.Error("Command failed", zap.Error(err), zap.Int64("chat_id", msg.Chat.ID))
	b.reply(msg, "Sorry, something went wrong. Please try again.")
}
