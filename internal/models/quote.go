package models

import "time"

// Quote is one motivational quote in a chat's pool.
type Quote struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
