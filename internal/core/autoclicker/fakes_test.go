package autoclicker

import (
	"sync"
	"time"
)

type clickCall struct {
	Button Button
	Count  int
}

type recordingSynth struct {
	mu     sync.Mutex
	moves  []Point
	clicks []clickCall
	pos    Point
	posErr error

	// clickHook runs before each click is recorded; a non-nil error fails
	// the click. attempt is 1-based.
	clickHook func(attempt int) error
}

func (r *recordingSynth) MoveTo(x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, Point{X: x, Y: y})
	r.pos = Point{X: x, Y: y}
	return nil
}

func (r *recordingSynth) Click(button Button, count int) error {
	r.mu.Lock()
	attempt := len(r.clicks) + 1
	hook := r.clickHook
	r.mu.Unlock()

	if hook != nil {
		if err := hook(attempt); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clicks = append(r.clicks, clickCall{Button: button, Count: count})
	return nil
}

func (r *recordingSynth) CurrentPosition() (Point, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos, r.posErr
}

func (r *recordingSynth) setPosition(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = p
}

func (r *recordingSynth) clickSnapshot() []clickCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]clickCall, len(r.clicks))
	copy(out, r.clicks)
	return out
}

func (r *recordingSynth) moveSnapshot() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Point, len(r.moves))
	copy(out, r.moves)
	return out
}

// fakeClock only moves when slept on or advanced explicitly.
type fakeClock struct {
	mu        sync.Mutex
	now       time.Time
	slept     time.Duration
	sleepHook func(total time.Duration)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.slept += d
	total := c.slept
	hook := c.sleepHook
	c.mu.Unlock()

	if hook != nil {
		hook(total)
	}
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type eventRecorder struct {
	mu     sync.Mutex
	events []RunEvent
}

func (r *eventRecorder) record(event RunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []RunEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunEvent, len(r.events))
	copy(out, r.events)
	return out
}

func ticks(events []RunEvent) []int {
	var out []int
	for _, event := range events {
		if event.Kind == EventTick {
			out = append(out, event.Clicks)
		}
	}
	return out
}

func statuses(events []RunEvent) []string {
	var out []string
	for _, event := range events {
		if event.Kind == EventStatus {
			out = append(out, event.Message)
		}
	}
	return out
}

func countKind(events []RunEvent, kind EventKind) int {
	n := 0
	for _, event := range events {
		if event.Kind == kind {
			n++
		}
	}
	return n
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
