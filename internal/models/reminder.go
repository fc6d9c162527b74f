package models

import "time"

// RecurrenceKind describes how a reminder repeats after firing.
type RecurrenceKind string

const (
	RecurrenceNone   RecurrenceKind = ""
	RecurrenceWeekly RecurrenceKind = "weekly"
)

// Recurrence is the repeat rule attached to a reminder. For weekly
// reminders Weekday and MinuteOfDay select the next occurrence; both are
// ignored for one-off reminders.
type Recurrence struct {
	Kind        RecurrenceKind `json:"kind"`
	Weekday     time.Weekday   `json:"weekday,omitempty"`
	MinuteOfDay int            `json:"minute_of_day,omitempty"`
}

// Reminder is a scheduled message for a chat. A reminder has at most one
// pending fire time; one-off reminders deactivate after firing, weekly
// reminders advance FireAt strictly past the fire time just processed.
type Reminder struct {
	ID         int64      `json:"id"`
	ChatID     int64      `json:"chat_id"`
	UserID     int64      `json:"user_id"`
	Message    string     `json:"message"`
	FireAt     time.Time  `json:"fire_at"`
	Recurrence Recurrence `json:"recurrence"`
	Active     bool       `json:"active"`

	// Claim fields guard against double-firing across overlapping or
	// retried ticks. A claimed reminder is skipped until its lease expires.
	ClaimToken string     `json:"claim_token,omitempty"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	Attempts   int        `json:"attempts"`

	CreatedAt time.Time `json:"created_at"`
}

// NextWeekly returns the smallest timestamp strictly after t that falls on
// weekday wd at minute-of-day minute, in UTC.
func NextWeekly(t time.Time, wd time.Weekday, minute int) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	ahead := (int(wd) - int(day.Weekday()) + 7) % 7
	next := day.AddDate(0, 0, ahead).Add(time.Duration(minute) * time.Minute)
	if !next.After(t) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}
