package images

import (
	"context"
	"fmt"
	"sync"
)

// ProgressUpdate is one observable change in a pull batch.
type ProgressUpdate struct {
	Image   *Ref
	Ordinal int
	Total   int
	Status  Status
	Current int64 // bytes downloaded so far
	Size    int64 // total bytes, 0 when unknown
	Failure FailureKind
	Error   error
}

// Tracker fans pull progress out to subscribers. Sends never block: a
// subscriber that falls behind misses intermediate updates.
type Tracker struct {
	subscribers []chan ProgressUpdate
	mu          sync.RWMutex
	closed      bool
	bufferSize  int
}

// NewTracker creates a tracker whose subscriber channels hold bufferSize
// updates.
func NewTracker(bufferSize int) *Tracker {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Tracker{
		subscribers: make([]chan ProgressUpdate, 0),
		bufferSize:  bufferSize,
	}
}

// Update broadcasts to all subscribers.
func (t *Tracker) Update(update ProgressUpdate) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return
	}

	for _, ch := range t.subscribers {
		select {
		case ch <- update:
		default:
			// Non-blocking send (skip slow consumers)
		}
	}
}

// Subscribe adds a subscriber. The channel is closed when ctx is done or the
// tracker is closed.
func (t *Tracker) Subscribe(ctx context.Context) (<-chan ProgressUpdate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("tracker closed")
	}

	ch := make(chan ProgressUpdate, t.bufferSize)
	t.subscribers = append(t.subscribers, ch)

	go func() {
		<-ctx.Done()
		t.unsubscribe(ch)
	}()

	return ch, nil
}

func (t *Tracker) unsubscribe(ch chan ProgressUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, sub := range t.subscribers {
		if sub == ch {
			t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Close closes all subscriber channels. Further updates are dropped.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	t.closed = true
	for _, ch := range t.subscribers {
		close(ch)
	}
	t.subscribers = nil
}
