package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// FilterMode selects how a filter word is matched against message text.
type FilterMode string

const (
	MatchSubstring FilterMode = "substring"
	MatchWholeWord FilterMode = "whole_word"
)

// FilterAction is what the moderation engine does when a filter matches.
type FilterAction string

const (
	ActionWarn   FilterAction = "warn"
	ActionDelete FilterAction = "delete"
	ActionRemove FilterAction = "remove"
)

// SpamFilter is one entry of a chat's filter set. Word is stored
// lower-cased; matching is case-insensitive.
type SpamFilter struct {
	ID        int64        `json:"id"`
	ChatID    int64        `json:"chat_id"`
	Word      string       `json:"word"`
	Mode      FilterMode   `json:"mode"`
	Action    FilterAction `json:"action"`
	CreatedAt time.Time    `json:"created_at"`
}

// Matches reports whether the filter applies to the given message text.
func (f *SpamFilter) Matches(text string) bool {
	lower := strings.ToLower(text)
	switch f.Mode {
	case MatchWholeWord:
		return containsWholeWord(lower, f.Word)
	default:
		return strings.Contains(lower, f.Word)
	}
}

// containsWholeWord reports whether word occurs in text without a letter,
// digit or underscore directly adjacent on either side. Unlike a \b regexp
// this also works for entries made of symbols, such as "$$$".
func containsWholeWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		from = start + 1
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ValidFilterAction reports whether s names a known filter action.
func ValidFilterAction(s string) bool {
	switch FilterAction(s) {
	case ActionWarn, ActionDelete, ActionRemove:
		return true
	}
	return false
}
