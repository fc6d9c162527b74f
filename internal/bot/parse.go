package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/hustle-bot/internal/models"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	wd, ok := weekdays[strings.ToLower(s)]
	return wd, ok
}

// parseTimeOfDay parses "HH:MM" into minutes since midnight.
func parseTimeOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

// parseRemind turns /remind arguments into scheduling parameters.
//
// Accepted forms:
//
//	today HH:MM message...
//	tomorrow HH:MM message...
//	DD/MM HH:MM message...
//	weekly WEEKDAY HH:MM message...
//
// All times are interpreted in UTC. For one-off forms the returned fire
// time may be in the past; the engine rejects that case.
func parseRemind(args []string, now time.Time) (time.Time, models.Recurrence, string, error) {
	now = now.UTC()

	if len(args) >= 1 && strings.EqualFold(args[0], "weekly") {
		if len(args) < 4 {
			return time.Time{}, models.Recurrence{}, "", fmt.Errorf("usage: /remind weekly WEEKDAY HH:MM message")
		}
		wd, ok := parseWeekday(args[1])
		if !ok {
			return time.Time{}, models.Recurrence{}, "", fmt.Errorf("unknown weekday %q", args[1])
		}
		minute, err := parseTimeOfDay(args[2])
		if err != nil {
			return time.Time{}, models.Recurrence{}, "", err
		}
		rec := models.Recurrence{Kind: models.RecurrenceWeekly, Weekday: wd, MinuteOfDay: minute}
		return time.Time{}, rec, strings.Join(args[3:], " "), nil
	}

	if len(args) < 3 {
		return time.Time{}, models.Recurrence{}, "", fmt.Errorf("usage: /remind today|tomorrow|DD/MM HH:MM message")
	}

	minute, err := parseTimeOfDay(args[1])
	if err != nil {
		return time.Time{}, models.Recurrence{}, "", err
	}

	var day time.Time
	switch strings.ToLower(args[0]) {
	case "today":
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case "tomorrow":
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	default:
		parts := strings.SplitN(args[0], "/", 2)
		if len(parts) != 2 {
			return time.Time{}, models.Recurrence{}, "", fmt.Errorf("invalid date %q, expected today, tomorrow or DD/MM", args[0])
		}
		d, err := strconv.Atoi(parts[0])
		if err != nil || d < 1 || d > 31 {
			return time.Time{}, models.Recurrence{}, "", fmt.Errorf("invalid day in %q", args[0])
		}
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 1 || m > 12 {
			return time.Time{}, models.Recurrence{}, "", fmt.Errorf("invalid month in %q", args[0])
		}
		day = time.Date(now.Year(), time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if day.Add(time.Duration(minute) * time.Minute).Before(now) {
			day = day.AddDate(1, 0, 0)
		}
	}

	fireAt := day.Add(time.Duration(minute) * time.Minute)
	return fireAt, models.Recurrence{Kind: models.RecurrenceNone}, strings.Join(args[2:], " "), nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "enable", "enabled":
		return true, nil
	case "off", "false", "disable", "disabled":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
