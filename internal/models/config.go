package models

// Per-chat configuration keys. Values are stored as strings; readers parse
// and fall back to defaults on missing or malformed entries.
const (
	CfgInactiveDays    = "inactive_days"
	CfgInactiveEnabled = "inactive_enabled"
	CfgWarningHours    = "inactive_warning_hours"
	CfgQuoteInterval   = "quote_interval"
	CfgAutoModeration  = "auto_moderation"
	CfgStyle           = "style"
	CfgWelcomeMessage  = "welcome_message"
	CfgRules           = "rules"
)
