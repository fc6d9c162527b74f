package models

import "time"

// MessageEvent is an inbound chat message as seen by the automation engine.
type MessageEvent struct {
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	MessageID int       `json:"message_id"`
	UserName  string    `json:"user_name,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// MembershipChange says whether a user joined or left a chat.
type MembershipChange string

const (
	MemberJoined MembershipChange = "joined"
	MemberLeft   MembershipChange = "left"
)

// MembershipEvent reports a chat membership change.
type MembershipEvent struct {
	ChatID    int64            `json:"chat_id"`
	UserID    int64            `json:"user_id"`
	UserName  string           `json:"user_name,omitempty"`
	Change    MembershipChange `json:"change"`
	Timestamp time.Time        `json:"timestamp"`
}
