package main

import (
	"sync"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

// runClicks tracks click counts per run so a stopped event reports the
// total of its own run even when the next run has already started.
type runClicks struct {
	mu     sync.Mutex
	byRun  map[uint64]int
	latest int
}

func newRunClicks() *runClicks {
	return &runClicks{byRun: make(map[uint64]int)}
}

// observe records event and, for EventStopped, returns the final count of
// that run.
func (r *runClicks) observe(event autoclicker.RunEvent) (final int, stopped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Kind {
	case autoclicker.EventStarted:
		r.byRun[event.RunID] = 0
		r.latest = 0
	case autoclicker.EventTick:
		r.byRun[event.RunID] = event.Clicks
		r.latest = event.Clicks
	case autoclicker.EventStopped:
		final = r.byRun[event.RunID]
		delete(r.byRun, event.RunID)
		return final, true
	}
	return 0, false
}

// current is the count of the most recently ticking run.
func (r *runClicks) current() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}
