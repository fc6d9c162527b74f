package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaenox/hustle-bot/internal/models"
)

func TestMemoryDueReminders(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

	mk := func(fireAt time.Time, active bool) *models.Reminder {
		r := &models.Reminder{ChatID: 1, UserID: 10, Message: "m", FireAt: fireAt, Active: active}
		require.NoError(t, s.CreateReminder(ctx, r))
		return r
	}

	due1 := mk(now.Add(-2*time.Hour), true)
	due2 := mk(now.Add(-time.Hour), true)
	mk(now.Add(time.Hour), true)   // future
	mk(now.Add(-time.Hour), false) // inactive

	got, err := s.DueReminders(ctx, now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, due1.ID, got[0].ID)
	assert.Equal(t, due2.ID, got[1].ID)
}

func TestMemoryClaimHidesUntilLeaseExpires(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

	r := &models.Reminder{ChatID: 1, Message: "m", FireAt: now.Add(-time.Minute), Active: true}
	require.NoError(t, s.CreateReminder(ctx, r))
	require.NoError(t, s.ClaimReminder(ctx, r.ID, "token", now))

	got, err := s.DueReminders(ctx, now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, got)

	// Once the cutoff passes the claim time the reminder is due again.
	later := now.Add(6 * time.Minute)
	got, err = s.DueReminders(ctx, later, later.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Attempts)
}

func TestMemoryAdvanceClearsClaim(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

	r := &models.Reminder{ChatID: 1, Message: "m", FireAt: now, Active: true}
	require.NoError(t, s.CreateReminder(ctx, r))
	require.NoError(t, s.ClaimReminder(ctx, r.ID, "token", now))

	next := now.AddDate(0, 0, 7)
	require.NoError(t, s.AdvanceReminder(ctx, r.ID, next))

	got, err := s.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, next, got.FireAt)
	assert.Empty(t, got.ClaimToken)
	assert.Nil(t, got.ClaimedAt)
	assert.Zero(t, got.Attempts)
	assert.True(t, got.Active)
}

func TestMemoryTouchActivityClearsWarning(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.TouchActivity(ctx, 1, 10, now))
	require.NoError(t, s.MarkWarned(ctx, 1, 10, now.Add(time.Hour)))

	rec, err := s.GetActivity(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, rec.WarnedAt)

	require.NoError(t, s.TouchActivity(ctx, 1, 10, now.Add(2*time.Hour)))
	rec, err = s.GetActivity(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, rec.WarnedAt)
	assert.Equal(t, 2, rec.MessageCount)
	assert.Equal(t, now.Add(2*time.Hour), rec.LastActivity)
}

func TestMemoryActivityChats(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.TouchActivity(ctx, 2, 10, now))
	require.NoError(t, s.TouchActivity(ctx, 1, 10, now))
	require.NoError(t, s.TouchActivity(ctx, 1, 20, now))

	chats, err := s.ActivityChats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, chats)
}

func TestMemoryMarkWarnedUnknownUser(t *testing.T) {
	s := NewMemoryStorage()
	err := s.MarkWarned(context.Background(), 1, 10, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryQuoteCounter(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		n, err := s.IncrementQuoteCounter(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	require.NoError(t, s.ResetQuoteCounter(ctx, 1))
	n, err := s.IncrementQuoteCounter(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryQuotes(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	_, err := s.RandomQuote(ctx, 1)
	assert.ErrorIs(t, err, ErrNoQuotes)

	id, err := s.AddQuote(ctx, 1, "only quote")
	require.NoError(t, err)

	q, err := s.RandomQuote(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "only quote", q.Text)

	deleted, err := s.DeleteQuote(ctx, 1, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteQuote(ctx, 1, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryClearQuotes(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := s.AddQuote(ctx, 1, text)
		require.NoError(t, err)
	}
	_, err := s.AddQuote(ctx, 2, "other chat")
	require.NoError(t, err)

	n, err := s.ClearQuotes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.RandomQuote(ctx, 1)
	assert.ErrorIs(t, err, ErrNoQuotes)

	// The other chat's pool is untouched.
	q, err := s.RandomQuote(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "other chat", q.Text)

	n, err = s.ClearQuotes(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemorySavedMessages(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	save := func(chatID int64, content, tag string) *models.SavedMessage {
		m := &models.SavedMessage{ChatID: chatID, SavedBy: 10, Content: content, Tag: tag}
		require.NoError(t, s.SaveMessage(ctx, m))
		require.NotZero(t, m.ID)
		return m
	}

	save(1, "first note", "")
	save(1, "the good deal", "deals")
	save(1, "second note", "")
	save(1, "the bad deal", "deals")
	save(2, "other chat note", "")

	// Untagged entries only, in save order, scoped to the chat.
	saved, err := s.SavedMessages(ctx, 1)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "first note", saved[0].Content)
	assert.Equal(t, "second note", saved[1].Content)

	deals, err := s.MessagesByTag(ctx, 1, "deals")
	require.NoError(t, err)
	require.Len(t, deals, 2)
	assert.Equal(t, "the good deal", deals[0].Content)
	assert.Equal(t, "the bad deal", deals[1].Content)

	none, err := s.MessagesByTag(ctx, 1, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)

	other, err := s.SavedMessages(ctx, 2)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "other chat note", other[0].Content)
}

func TestMemoryFilterUpsert(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	require.NoError(t, s.AddFilter(ctx, &models.SpamFilter{
		ChatID: 1, Word: "spam", Mode: models.MatchSubstring, Action: models.ActionWarn,
	}))
	require.NoError(t, s.AddFilter(ctx, &models.SpamFilter{
		ChatID: 1, Word: "spam", Mode: models.MatchWholeWord, Action: models.ActionRemove,
	}))

	filters, err := s.ListFilters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	assert.Equal(t, models.MatchWholeWord, filters[0].Mode)
	assert.Equal(t, models.ActionRemove, filters[0].Action)
}

func TestMemoryStrikes(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()
	now := time.Now().UTC()

	st, err := s.GetStrikes(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, st.Strikes)

	n, err := s.AddStrike(ctx, 1, 10, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.AddStrike(ctx, 1, 10, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.ResetStrikes(ctx, 1, 10))
	st, err = s.GetStrikes(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, st.Strikes)
}

func TestMemoryConfig(t *testing.T) {
	s := NewMemoryStorage()
	ctx := context.Background()

	v, err := s.GetConfig(ctx, 1, "quote_interval", "50")
	require.NoError(t, err)
	assert.Equal(t, "50", v)

	require.NoError(t, s.SetConfig(ctx, 1, "quote_interval", "10"))
	v, err = s.GetConfig(ctx, 1, "quote_interval", "50")
	require.NoError(t, err)
	assert.Equal(t, "10", v)

	// Settings are scoped to the chat.
	v, err = s.GetConfig(ctx, 2, "quote_interval", "50")
	require.NoError(t, err)
	assert.Equal(t, "50", v)

	require.NoError(t, s.DeleteConfig(ctx, 1, "quote_interval"))
	v, err = s.GetConfig(ctx, 1, "quote_interval", "50")
	require.NoError(t, err)
	assert.Equal(t, "50", v)
}
