package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/hustle-bot/internal/models"
)

// 2024-03-04 is a Monday.
var parseNow = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

func TestParseRemindToday(t *testing.T) {
	fireAt, rec, msg, err := parseRemind([]string{"today", "18:30", "call", "the", "don"}, parseNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 4, 18, 30, 0, 0, time.UTC), fireAt)
	assert.Equal(t, models.RecurrenceNone, rec.Kind)
	assert.Equal(t, "call the don", msg)
}

func TestParseRemindTomorrow(t *testing.T) {
	fireAt, _, msg, err := parseRemind([]string{"tomorrow", "09:00", "meeting"}, parseNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC), fireAt)
	assert.Equal(t, "meeting", msg)
}

func TestParseRemindExplicitDate(t *testing.T) {
	fireAt, _, _, err := parseRemind([]string{"15/04", "08:00", "taxes"}, parseNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.April, 15, 8, 0, 0, 0, time.UTC), fireAt)
}

func TestParseRemindPastDateRollsToNextYear(t *testing.T) {
	fireAt, _, _, err := parseRemind([]string{"01/01", "10:00", "new year"}, parseNow)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC), fireAt)
}

func TestParseRemindWeekly(t *testing.T) {
	fireAt, rec, msg, err := parseRemind([]string{"weekly", "friday", "17:00", "status", "update"}, parseNow)
	require.NoError(t, err)
	assert.True(t, fireAt.IsZero())
	assert.Equal(t, models.RecurrenceWeekly, rec.Kind)
	assert.Equal(t, time.Friday, rec.Weekday)
	assert.Equal(t, 17*60, rec.MinuteOfDay)
	assert.Equal(t, "status update", msg)
}

func TestParseRemindErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"today"},
		{"today", "18:00"},
		{"today", "25:00", "msg"},
		{"today", "18:61", "msg"},
		{"today", "1800", "msg"},
		{"32/01", "10:00", "msg"},
		{"01/13", "10:00", "msg"},
		{"someday", "10:00", "msg"},
		{"weekly", "funday", "10:00", "msg"},
		{"weekly", "monday", "10:00"},
	}
	for _, args := range cases {
		_, _, _, err := parseRemind(args, parseNow)
		assert.Error(t, err, "args %v", args)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	n, err := parseTimeOfDay("00:00")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = parseTimeOfDay("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, n)

	for _, bad := range []string{"24:00", "12:60", "12", "ab:cd", ""} {
		_, err := parseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestParseWeekday(t *testing.T) {
	wd, ok := parseWeekday("Friday")
	assert.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	_, ok = parseWeekday("someday")
	assert.False(t, ok)
}

func TestParseOnOff(t *testing.T) {
	for _, s := range []string{"on", "ON", "true", "enable", "enabled"} {
		v, err := parseOnOff(s)
		require.NoError(t, err)
		assert.True(t, v, s)
	}
	for _, s := range []string{"off", "false", "disable", "disabled"} {
		v, err := parseOnOff(s)
		require.NoError(t, err)
		assert.False(t, v, s)
	}
	_, err := parseOnOff("maybe")
	assert.Error(t, err)
}
