package models

import "time"

// ActivityRecord tracks a user's presence in a chat. WarnedAt is non-nil
// only while the user is in the warned state of the inactivity machine;
// any inbound activity clears it.
type ActivityRecord struct {
	ChatID       int64      `json:"chat_id"`
	UserID       int64      `json:"user_id"`
	LastActivity time.Time  `json:"last_activity"`
	MessageCount int        `json:"message_count"`
	WarnedAt     *time.Time `json:"warned_at,omitempty"`
}

// SpamStrike records accumulated moderation violations for a user in a
// chat. Strikes only grow until an explicit reset.
type SpamStrike struct {
	ChatID       int64     `json:"chat_id"`
	UserID       int64     `json:"user_id"`
	Strikes      int       `json:"strikes"`
	LastStrikeAt time.Time `json:"last_strike_at"`
}
