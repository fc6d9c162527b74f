package bot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatWorkersPreserveOrderPerChat(t *testing.T) {
	w := newChatWorkers(16)

	var mu sync.Mutex
	got := map[int64][]int{}

	for i := 0; i < 50; i++ {
		for _, chatID := range []int64{1, 2, 3} {
			chatID, i := chatID, i
			w.submit(chatID, func() {
				mu.Lock()
				got[chatID] = append(got[chatID], i)
				mu.Unlock()
			})
		}
	}
	w.close()

	for chatID, seq := range got {
		assert.Len(t, seq, 50, "chat %d", chatID)
		for i, v := range seq {
			assert.Equal(t, i, v, "chat %d position %d", chatID, i)
		}
	}
}

func TestChatWorkersSubmitAfterClose(t *testing.T) {
	w := newChatWorkers(1)
	w.submit(1, func() {})
	w.close()

	// Must not panic or hang.
	w.submit(1, func() { t.Error("job ran after close") })
}
