package bot

import "sync"

// chatWorkers runs submitted work in arrival order per chat, with different
// chats proceeding in parallel. One goroutine per chat, created lazily.
type chatWorkers struct {
	mu     sync.Mutex
	queues map[int64]chan func()
	buffer int
	wg     sync.WaitGroup
	closed bool
}

func newChatWorkers(buffer int) *chatWorkers {
	return &chatWorkers{
		queues: make(map[int64]chan func()),
		buffer: buffer,
	}
}

func (w *chatWorkers) submit(chatID int64, fn func()) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	q, ok := w.queues[chatID]
	if !ok {
		q = make(chan func(), w.buffer)
		w.queues[chatID] = q
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for job := range q {
				job()
			}
		}()
	}
	w.mu.Unlock()

	q <- fn
}

// close stops accepting work and waits for in-flight jobs to drain.
func (w *chatWorkers) close() {
	w.mu.Lock()
	w.closed = true
	for _, q := range w.queues {
		close(q)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
