package webhook

import (
	"sync"
	"sync/atomic"
)

type delivery struct {
	sub   Subscriber
	event string
	body  []byte
}

// queue is an unbounded FIFO of deliveries. Pushing never blocks, so a
// mutation handler is never held up by slow subscribers.
type queue struct {
	mu      sync.Mutex
	backlog []delivery
	notify  chan struct{}
	closed  bool

	enqueued atomic.Uint64
	done     atomic.Uint64
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

// push reports false once intake is closed. The check and the append share
// the lock, so nothing is accepted after closeIntake returns.
func (q *queue) push(ds ...delivery) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.enqueued.Add(uint64(len(ds)))
	q.backlog = append(q.backlog, ds...)
	q.mu.Unlock()

	q.wake()
	return true
}

// pop takes the oldest delivery. If more remain it wakes another worker.
func (q *queue) pop() (delivery, bool) {
	q.mu.Lock()
	if len(q.backlog) == 0 {
		q.mu.Unlock()
		return delivery{}, false
	}
	d := q.backlog[0]
	q.backlog[0] = delivery{}
	q.backlog = q.backlog[1:]
	more := len(q.backlog) > 0
	q.mu.Unlock()

	if more {
		q.wake()
	}
	return d, true
}

func (q *queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue) markDone() { q.done.Add(1) }

func (q *queue) closeIntake() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// idle reports whether every pushed delivery has been attempted.
func (q *queue) idle() bool {
	return q.enqueued.Load() == q.done.Load()
}

func (q *queue) backlogSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}
