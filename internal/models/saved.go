package models

import "time"

// SavedMessage is a message (or free text) kept in a chat's archive.
// Untagged entries are the chat's saved messages; tagged entries are
// retrieved by tag.
type SavedMessage struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	SavedBy   int64     `json:"saved_by"`
	Content   string    `json:"content"`
	Tag       string    `json:"tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
