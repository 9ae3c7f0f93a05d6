package autoclicker

import "sync"

// eventQueue is an unbounded FIFO. push never blocks, so the scheduler's
// timing loop is never held up by a slow observer.
type eventQueue struct {
	mu     sync.Mutex
	items  []RunEvent
	closed bool
	wakeCh chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{wakeCh: make(chan struct{}, 1)}
}

func (q *eventQueue) push(event RunEvent) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, event)
	q.mu.Unlock()

	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
	return true
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}

// drain delivers events in push order until the queue is closed and empty.
func (q *eventQueue) drain(deliver func(RunEvent)) {
	for {
		q.mu.Lock()
		batch := q.items
		q.items = nil
		closed := q.closed
		q.mu.Unlock()

		for _, event := range batch {
			deliver(event)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-q.wakeCh
	}
}
