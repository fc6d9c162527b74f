package engine

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/xaenox/hustle-bot/internal/storage"
)

type action struct {
	kind      string
	chatID    int64
	userID    int64
	messageID int
	days      int
	text      string
}

// mockDispatcher records emitted actions and can fail on demand.
type mockDispatcher struct {
	mu      sync.Mutex
	actions []action

	deliverErr      error
	remindErr       error
	warnErr         error
	warnInactiveErr error
	removeErr       error
	deleteErr       error
}

func (d *mockDispatcher) record(a action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actions = append(d.actions, a)
}

func (d *mockDispatcher) Deliver(ctx context.Context, chatID int64, text string) error {
	if d.deliverErr != nil {
		return d.deliverErr
	}
	d.record(action{kind: "deliver", chatID: chatID, text: text})
	return nil
}

func (d *mockDispatcher) Remind(ctx context.Context, chatID int64, message string) error {
	if d.remindErr != nil {
		return d.remindErr
	}
	d.record(action{kind: "remind", chatID: chatID, text: message})
	return nil
}

func (d *mockDispatcher) Warn(ctx context.Context, chatID, userID int64, reason string) error {
	if d.warnErr != nil {
		return d.warnErr
	}
	d.record(action{kind: "warn", chatID: chatID, userID: userID, text: reason})
	return nil
}

func (d *mockDispatcher) WarnInactivity(ctx context.Context, chatID, userID int64, days int) error {
	if d.warnInactiveErr != nil {
		return d.warnInactiveErr
	}
	d.record(action{kind: "warn_inactivity", chatID: chatID, userID: userID, days: days})
	return nil
}

func (d *mockDispatcher) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if d.deleteErr != nil {
		return d.deleteErr
	}
	d.record(action{kind: "delete_message", chatID: chatID, messageID: messageID})
	return nil
}

func (d *mockDispatcher) RemoveUser(ctx context.Context, chatID, userID int64) error {
	if d.removeErr != nil {
		return d.removeErr
	}
	d.record(action{kind: "remove_user", chatID: chatID, userID: userID})
	return nil
}

func (d *mockDispatcher) ofKind(kind string) []action {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []action
	for _, a := range d.actions {
		if a.kind == kind {
			out = append(out, a)
		}
	}
	return out
}

var testEpoch = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC) // a Monday

func newTestEngine(opts Options) (*Engine, *storage.MemoryStorage, *mockDispatcher, *clockwork.FakeClock) {
	store := storage.NewMemoryStorage()
	dispatch := &mockDispatcher{}
	clock := clockwork.NewFakeClockAt(testEpoch)
	eng := New(store, dispatch, clock, zap.NewNop(), opts)
	return eng, store, dispatch, clock
}
