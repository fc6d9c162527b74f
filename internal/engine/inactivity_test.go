package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/models"
	"github.com/xaenox/hustle-bot/internal/storage"
)

func sendMessage(eng *Engine, chatID, userID int64, text string, at time.Time) {
	eng.HandleMessage(context.Background(), models.MessageEvent{
		ChatID:    chatID,
		UserID:    userID,
		MessageID: 1,
		Text:      text,
		Timestamp: at,
	})
}

func TestInactivityWarnsAfterThreshold(t *testing.T) {
	eng, store, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7, DefaultWarningHours: 24})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())

	clock.Advance(6 * 24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())
	assert.Empty(t, dispatch.ofKind("warn_inactivity"))

	clock.Advance(24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())

	warns := dispatch.ofKind("warn_inactivity")
	require.Len(t, warns, 1)
	assert.Equal(t, int64(10), warns[0].userID)
	assert.Equal(t, 7, warns[0].days)

	rec, err := store.GetActivity(ctx, 1, 10)
	require.NoError(t, err)
	require.NotNil(t, rec.WarnedAt)

	// Warning is sent once, not on every scan.
	eng.TickInactivity(ctx, clock.Now())
	assert.Len(t, dispatch.ofKind("warn_inactivity"), 1)
}

func TestInactivityRemovesAfterGrace(t *testing.T) {
	eng, store, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7, DefaultWarningHours: 24})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())

	clock.Advance(7 * 24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())
	require.Len(t, dispatch.ofKind("warn_inactivity"), 1)

	// Within the grace period nothing happens.
	clock.Advance(23 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())
	assert.Empty(t, dispatch.ofKind("remove_user"))

	clock.Advance(time.Hour)
	eng.TickInactivity(ctx, clock.Now())

	removed := dispatch.ofKind("remove_user")
	require.Len(t, removed, 1)
	assert.Equal(t, int64(10), removed[0].userID)

	_, err := store.GetActivity(ctx, 1, 10)
	assert.Error(t, err)
}

func TestActivityDuringGraceResetsWarning(t *testing.T) {
	eng, store, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7, DefaultWarningHours: 24})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())
	clock.Advance(7 * 24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())
	require.Len(t, dispatch.ofKind("warn_inactivity"), 1)

	// Any activity returns the user to Active.
	sendMessage(eng, 1, 10, "I live", clock.Now())

	rec, err := store.GetActivity(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, rec.WarnedAt)

	clock.Advance(24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())
	assert.Empty(t, dispatch.ofKind("remove_user"))
}

func TestInactivityDisabledChatSkipped(t *testing.T) {
	eng, _, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())
	sendMessage(eng, 2, 20, "hello", clock.Now())
	require.NoError(t, eng.SetInactiveEnabled(ctx, 1, false))

	clock.Advance(30 * 24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())

	warns := dispatch.ofKind("warn_inactivity")
	require.Len(t, warns, 1)
	assert.Equal(t, int64(2), warns[0].chatID)
}

func TestInactivityPerChatThreshold(t *testing.T) {
	eng, _, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())
	require.NoError(t, eng.SetInactiveDays(ctx, 1, 2))

	clock.Advance(2 * 24 * time.Hour)
	eng.TickInactivity(ctx, clock.Now())

	warns := dispatch.ofKind("warn_inactivity")
	require.Len(t, warns, 1)
	assert.Equal(t, 2, warns[0].days)
}

// staleScanStore serves the inactivity scan an outdated snapshot while the
// per-user lookups see current state.
type staleScanStore struct {
	storage.Storage
	stale []*models.ActivityRecord
}

func (s *staleScanStore) ChatActivity(ctx context.Context, chatID int64) ([]*models.ActivityRecord, error) {
	return s.stale, nil
}

func TestScanRechecksRecordBeforeWarning(t *testing.T) {
	mem := storage.NewMemoryStorage()
	dispatch := &mockDispatcher{}
	clock := clockwork.NewFakeClockAt(testEpoch)
	ctx := context.Background()

	// The user spoke just now, but the scan's snapshot predates that
	// message by more than the threshold.
	require.NoError(t, mem.TouchActivity(ctx, 1, 10, clock.Now()))
	staleTime := clock.Now().Add(-8 * 24 * time.Hour)
	store := &staleScanStore{
		Storage: mem,
		stale:   []*models.ActivityRecord{{ChatID: 1, UserID: 10, LastActivity: staleTime}},
	}

	eng := New(store, dispatch, clock, zap.NewNop(), Options{DefaultInactiveDays: 7})
	eng.TickInactivity(ctx, clock.Now())

	assert.Empty(t, dispatch.ofKind("warn_inactivity"))
}

func TestScanRechecksRecordBeforeRemoval(t *testing.T) {
	mem := storage.NewMemoryStorage()
	dispatch := &mockDispatcher{}
	clock := clockwork.NewFakeClockAt(testEpoch)
	ctx := context.Background()

	// Snapshot says the user was warned two days ago; in reality they
	// came back and the warning was cleared.
	require.NoError(t, mem.TouchActivity(ctx, 1, 10, clock.Now()))
	warnedAt := clock.Now().Add(-2 * 24 * time.Hour)
	store := &staleScanStore{
		Storage: mem,
		stale: []*models.ActivityRecord{{
			ChatID:       1,
			UserID:       10,
			LastActivity: warnedAt.Add(-8 * 24 * time.Hour),
			WarnedAt:     &warnedAt,
		}},
	}

	eng := New(store, dispatch, clock, zap.NewNop(), Options{DefaultInactiveDays: 7, DefaultWarningHours: 24})
	eng.TickInactivity(ctx, clock.Now())

	assert.Empty(t, dispatch.ofKind("remove_user"))
}

func TestScanSkipsRecordDeletedMidScan(t *testing.T) {
	mem := storage.NewMemoryStorage()
	dispatch := &mockDispatcher{}
	clock := clockwork.NewFakeClockAt(testEpoch)
	ctx := context.Background()

	// Seed another record so the chat shows up in the scan, then serve a
	// snapshot naming a user that no longer exists.
	require.NoError(t, mem.TouchActivity(ctx, 1, 99, clock.Now()))
	store := &staleScanStore{
		Storage: mem,
		stale: []*models.ActivityRecord{{
			ChatID:       1,
			UserID:       10,
			LastActivity: clock.Now().Add(-30 * 24 * time.Hour),
		}},
	}

	eng := New(store, dispatch, clock, zap.NewNop(), Options{DefaultInactiveDays: 7})
	eng.TickInactivity(ctx, clock.Now())

	assert.Empty(t, dispatch.actions)
}

func TestWarnFailureRetriedNextTick(t *testing.T) {
	eng, store, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())
	clock.Advance(7 * 24 * time.Hour)

	dispatch.warnInactiveErr = errors.New("telegram: 502")
	eng.TickInactivity(ctx, clock.Now())

	// The warning was not delivered, so the state must not advance.
	rec, err := store.GetActivity(ctx, 1, 10)
	require.NoError(t, err)
	assert.Nil(t, rec.WarnedAt)

	dispatch.warnInactiveErr = nil
	eng.TickInactivity(ctx, clock.Now())
	assert.Len(t, dispatch.ofKind("warn_inactivity"), 1)
}

func TestInactivityChatGoneDropsRecord(t *testing.T) {
	eng, store, dispatch, clock := newTestEngine(Options{DefaultInactiveDays: 7})
	ctx := context.Background()

	sendMessage(eng, 1, 10, "hello", clock.Now())
	clock.Advance(7 * 24 * time.Hour)

	dispatch.warnInactiveErr = ErrChatNotFound
	eng.TickInactivity(ctx, clock.Now())

	_, err := store.GetActivity(ctx, 1, 10)
	assert.Error(t, err)
}

func TestMembershipSeedsAndDropsActivity(t *testing.T) {
	eng, store, _, clock := newTestEngine(Options{})
	ctx := context.Background()

	eng.HandleMembership(ctx, models.MembershipEvent{
		ChatID:    1,
		UserID:    10,
		Change:    models.MemberJoined,
		Timestamp: clock.Now(),
	})

	rec, err := store.GetActivity(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().UTC(), rec.LastActivity)

	eng.HandleMembership(ctx, models.MembershipEvent{
		ChatID:    1,
		UserID:    10,
		Change:    models.MemberLeft,
		Timestamp: clock.Now(),
	})

	_, err = store.GetActivity(ctx, 1, 10)
	assert.Error(t, err)
}

func TestCommandsDoNotCountAsActivity(t *testing.T) {
	eng, store, _, clock := newTestEngine(Options{})

	sendMessage(eng, 1, 10, "/help", clock.Now())

	_, err := store.GetActivity(context.Background(), 1, 10)
	assert.Error(t, err)
}
