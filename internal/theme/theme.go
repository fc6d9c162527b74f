// Package theme renders the bot's outbound texts in one of two tones,
// selected per chat through the style config key.
package theme

import (
	"fmt"
	"strings"
)

// Tone selects the voice used for rendered messages.
type Tone string

const (
	ToneSerious Tone = "serious"
	ToneFun     Tone = "fun"
)

// ParseTone maps a config value to a Tone, defaulting to serious.
func ParseTone(s string) Tone {
	if strings.EqualFold(s, string(ToneFun)) {
		return ToneFun
	}
	return ToneSerious
}

// Renderer produces themed message texts.
type Renderer struct {
	tone Tone
}

func NewRenderer(tone Tone) *Renderer {
	return &Renderer{tone: tone}
}

func (r *Renderer) Tone() Tone {
	return r.tone
}

func (r *Renderer) Reminder(message string) string {
	if r.tone == ToneFun {
		return fmt.Sprintf("⏰ Wake up, soldier! The family does not forget:\n\n%s", message)
	}
	return fmt.Sprintf("⏰ Reminder:\n\n%s", message)
}

func (r *Renderer) Quote(quote string) string {
	if r.tone == ToneFun {
		return fmt.Sprintf("💪 The family has been busy. A dose of wisdom:\n\n\"%s\"", quote)
	}
	return fmt.Sprintf("💬 \"%s\"", quote)
}

func (r *Renderer) InactivityWarning(days int) string {
	if r.tone == ToneFun {
		return fmt.Sprintf("🔫 You have gone quiet for %d days. Show a sign of life or you will be swimming with the fishes.", days)
	}
	return fmt.Sprintf("⚠️ You have been inactive for %d days. Without activity during the grace period you will be removed from the group.", days)
}

func (r *Renderer) Removal() string {
	if r.tone == ToneFun {
		return "🐟 Another one sleeps with the fishes. A member was removed for prolonged inactivity."
	}
	return "🚫 A member was removed from the group for prolonged inactivity."
}

func (r *Renderer) SpamWarning(reason string) string {
	if r.tone == ToneFun {
		return fmt.Sprintf("🦈 Careful, you are swimming with sharks: %s", reason)
	}
	return fmt.Sprintf("⚠️ Warning: %s", reason)
}

// Welcome renders the greeting for a joining member. A non-empty custom
// template takes precedence; {name} is substituted with the member's name.
func (r *Renderer) Welcome(custom, name string) string {
	if custom != "" {
		return strings.ReplaceAll(custom, "{name}", name)
	}
	if r.tone == ToneFun {
		return fmt.Sprintf("🤝 Welcome to the family, %s. Work hard and nobody gets hurt.", name)
	}
	return fmt.Sprintf("👋 Welcome, %s.", name)
}
