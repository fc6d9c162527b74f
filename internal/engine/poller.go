package engine

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Ticker is the poller's view of the engine.
type Ticker interface {
	TickReminders(ctx context.Context, now time.Time)
	TickInactivity(ctx context.Context, now time.Time)
}

// Poller drives the two periodic scans on independent cadences. A tick
// that is still running when the next is due is skipped, not queued.
type Poller struct {
	engine Ticker
	clock  clockwork.Clock
	logger *zap.Logger

	reminderEvery   time.Duration
	inactivityEvery time.Duration

	reminderMu   sync.Mutex
	inactivityMu sync.Mutex
}

func NewPoller(engine Ticker, clock clockwork.Clock, logger *zap.Logger, reminderEvery, inactivityEvery time.Duration) *Poller {
	if reminderEvery <= 0 {
		reminderEvery = 30 * time.Second
	}
	if inactivityEvery <= 0 {
		inactivityEvery = 15 * time.Minute
	}
	return &Poller{
		engine:          engine,
		clock:           clock,
		logger:          logger,
		reminderEvery:   reminderEvery,
		inactivityEvery: inactivityEvery,
	}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.loop(ctx, "reminders", p.reminderEvery, &p.reminderMu, p.engine.TickReminders)
	}()
	go func() {
		defer wg.Done()
		p.loop(ctx, "inactivity", p.inactivityEvery, &p.inactivityMu, p.engine.TickInactivity)
	}()

	wg.Wait()
}

func (p *Poller) loop(ctx context.Context, name string, every time.Duration, mu *sync.Mutex, tick func(context.Context, time.Time)) {
	p.logger.Info("Poller loop started",
		zap.String("scan", name),
		zap.Duration("interval", every))

	ticker := p.clock.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller loop stopped", zap.String("scan", name))
			return
		case <-ticker.Chan():
			if !mu.TryLock() {
				p.logger.Warn("Skipping tick, previous still running", zap.String("scan", name))
				continue
			}
			tick(ctx, p.clock.Now())
			mu.Unlock()
		}
	}
}
