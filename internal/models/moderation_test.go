package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpamFilterMatches(t *testing.T) {
	tests := []struct {
		name   string
		filter SpamFilter
		text   string
		want   bool
	}{
		{"substring hit", SpamFilter{Word: "crypto", Mode: MatchSubstring}, "buy CRYPTO now", true},
		{"substring inside word", SpamFilter{Word: "scam", Mode: MatchSubstring}, "scampering", true},
		{"substring miss", SpamFilter{Word: "crypto", Mode: MatchSubstring}, "buy gold now", false},
		{"whole word hit", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "what a SCAM!", true},
		{"whole word inside word", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "scampering off", false},
		{"whole word at boundary", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "scam", true},
		{"whole word prefixed", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "rescam", false},
		{"whole word hyphenated", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "scam-free offer", true},
		{"whole word underscore adjacent", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "scam_bot", false},
		{"whole word symbols", SpamFilter{Word: "$$$", Mode: MatchWholeWord}, "send $$$ now", true},
		{"whole word symbols standalone", SpamFilter{Word: "$$$", Mode: MatchWholeWord}, "$$$", true},
		{"whole word second occurrence", SpamFilter{Word: "scam", Mode: MatchWholeWord}, "scamper into a scam", true},
		{"whole word empty entry", SpamFilter{Word: "", Mode: MatchWholeWord}, "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.text))
		})
	}
}

func TestValidFilterAction(t *testing.T) {
	assert.True(t, ValidFilterAction("warn"))
	assert.True(t, ValidFilterAction("delete"))
	assert.True(t, ValidFilterAction("remove"))
	assert.False(t, ValidFilterAction("ban"))
	assert.False(t, ValidFilterAction(""))
}
