package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/hustle-bot/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoQuotes is returned by RandomQuote when a chat has no quotes.
var ErrNoQuotes = errors.New("no quotes available")

type Storage interface {
	ReminderStore
	ActivityStore
	QuoteStore
	SavedMessageStore
	ModerationStore
	ConfigStore
	Close() error
}

// ReminderStore persists scheduled reminders, including the claim fields
// the poller uses to guarantee at-most-once firing per fire time.
type ReminderStore interface {
	CreateReminder(ctx context.Context, r *models.Reminder) error
	GetReminder(ctx context.Context, id int64) (*models.Reminder, error)
	ActiveReminders(ctx context.Context, chatID int64) ([]*models.Reminder, error)

	// DueReminders returns active reminders with fire_at <= now that are
	// either unclaimed or whose claim is older than leaseCutoff, ordered
	// by (fire_at, id) ascending.
	DueReminders(ctx context.Context, now, leaseCutoff time.Time) ([]*models.Reminder, error)

	ClaimReminder(ctx context.Context, id int64, token string, at time.Time) error

	// AdvanceReminder moves a recurring reminder to its next fire time and
	// clears claim state.
	AdvanceReminder(ctx context.Context, id int64, nextFire time.Time) error

	// DeactivateReminder marks a reminder inactive and clears claim state.
	DeactivateReminder(ctx context.Context, id int64) error
}

// ActivityStore persists per-(chat,user) activity records.
type ActivityStore interface {
	// TouchActivity upserts the record: sets last_activity, increments the
	// message count and unconditionally clears the warned timestamp.
	TouchActivity(ctx context.Context, chatID, userID int64, at time.Time) error
	GetActivity(ctx context.Context, chatID, userID int64) (*models.ActivityRecord, error)
	ChatActivity(ctx context.Context, chatID int64) ([]*models.ActivityRecord, error)
	ActivityChats(ctx context.Context) ([]int64, error)
	MarkWarned(ctx context.Context, chatID, userID int64, at time.Time) error
	DeleteActivity(ctx context.Context, chatID, userID int64) error
}

// QuoteStore persists a chat's quote pool and its trigger counter.
type QuoteStore interface {
	AddQuote(ctx context.Context, chatID int64, text string) (int64, error)
	ListQuotes(ctx context.Context, chatID int64) ([]*models.Quote, error)
	DeleteQuote(ctx context.Context, chatID, quoteID int64) (bool, error)
	RandomQuote(ctx context.Context, chatID int64) (*models.Quote, error)

	// IncrementQuoteCounter bumps the chat's counter and returns the new value.
	IncrementQuoteCounter(ctx context.Context, chatID int64) (int, error)
	ResetQuoteCounter(ctx context.Context, chatID int64) error

	// ClearQuotes removes every quote of a chat and reports how many went.
	ClearQuotes(ctx context.Context, chatID int64) (int, error)
}

// SavedMessageStore persists a chat's message archive. Entries with an
// empty tag are the chat's saved messages; tagged entries form the tag
// index.
type SavedMessageStore interface {
	SaveMessage(ctx context.Context, m *models.SavedMessage) error
	SavedMessages(ctx context.Context, chatID int64) ([]*models.SavedMessage, error)
	MessagesByTag(ctx context.Context, chatID int64, tag string) ([]*models.SavedMessage, error)
}

// ModerationStore persists filter sets and strike counters.
type ModerationStore interface {
	AddFilter(ctx context.Context, f *models.SpamFilter) error
	RemoveFilter(ctx context.Context, chatID int64, word string) (bool, error)
	ListFilters(ctx context.Context, chatID int64) ([]*models.SpamFilter, error)

	// AddStrike increments the user's strike count and returns the new value.
	AddStrike(ctx context.Context, chatID, userID int64, at time.Time) (int, error)
	GetStrikes(ctx context.Context, chatID, userID int64) (*models.SpamStrike, error)
	ResetStrikes(ctx context.Context, chatID, userID int64) error
}

// ConfigStore persists per-chat key/value settings.
type ConfigStore interface {
	GetConfig(ctx context.Context, chatID int64, key, def string) (string, error)
	SetConfig(ctx context.Context, chatID int64, key, value string) error
	DeleteConfig(ctx context.Context, chatID int64, key string) error
}
