package engine

import (
	"sync"

	"github.com/roach88/prodsys/internal/action"
)

// actionQueue is a thread-safe FIFO of dispatched actions.
//
// The queue is unbounded so that transport goroutines never block on
// Dispatch. A buffered signal channel of size one lets the Run loop wait
// for work and for context cancellation in the same select.
type actionQueue struct {
	mu      sync.Mutex
	actions []action.Action
	closed  bool
	signal  chan struct{}
}

// newActionQueue creates an open, empty queue.
func newActionQueue() *actionQueue {
	return &actionQueue{
		actions: make([]action.Action, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends a to the queue. Returns false once the queue is closed.
func (q *actionQueue) Enqueue(a action.Action) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.actions = append(q.actions, a)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front action without blocking.
// Actions queued before Close are still returned, so the Run loop can
// drain them.
func (q *actionQueue) TryDequeue() (action.Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.actions) == 0 {
		return action.Action{}, false
	}

	a := q.actions[0]
	// Clear the slot so the backing array does not pin payloads.
	q.actions[0] = action.Action{}

	if len(q.actions) == 1 {
		q.actions = q.actions[:0]
	} else {
		q.actions = q.actions[1:]
	}

	return a, true
}

// Wait returns a channel that fires when actions may be available. It is
// closed when the queue closes.
func (q *actionQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued actions.
func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions)
}

// Close stops accepting actions and wakes any waiter.
func (q *actionQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
