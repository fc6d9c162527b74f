package engine

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubTicker struct {
	reminders  chan time.Time
	inactivity chan time.Time
}

func (s *stubTicker) TickReminders(ctx context.Context, now time.Time) {
	select {
	case s.reminders <- now:
	default:
	}
}

func (s *stubTicker) TickInactivity(ctx context.Context, now time.Time) {
	select {
	case s.inactivity <- now:
	default:
	}
}

func TestPollerDrivesBothScans(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	st := &stubTicker{
		reminders:  make(chan time.Time, 100),
		inactivity: make(chan time.Time, 100),
	}
	p := NewPoller(st, clock, zap.NewNop(), time.Minute, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// Wait for both loops to arm their tickers before moving time.
	clock.BlockUntil(2)

	clock.Advance(time.Minute)
	select {
	case now := <-st.reminders:
		assert.Equal(t, testEpoch.Add(time.Minute), now)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder tick never arrived")
	}
	select {
	case <-st.inactivity:
		t.Fatal("inactivity ticked before its interval elapsed")
	default:
	}

	clock.Advance(59 * time.Minute)
	select {
	case <-st.inactivity:
	case <-time.After(2 * time.Second):
		t.Fatal("inactivity tick never arrived")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on context cancellation")
	}
}

func TestPollerDefaultIntervals(t *testing.T) {
	p := NewPoller(&stubTicker{}, clockwork.NewFakeClock(), zap.NewNop(), 0, -time.Second)
	assert.Equal(t, 30*time.Second, p.reminderEvery)
	assert.Equal(t, 15*time.Minute, p.inactivityEvery)
}
