package autoclicker

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

const (
	// MaxCatchUp bounds how many overdue ticks one pass may pay back after a
	// stall. The remaining backlog is dropped, not fired.
	MaxCatchUp = 20

	SleepGranularity = 2 * time.Millisecond

	countdownPoll = 50 * time.Millisecond
)

const (
	StatusRunning      = "Running (F8 toggle / F9 panic / top-left failsafe)"
	StatusLimitReached = "Click limit reached. Stopped."
	StatusFailsafe     = "FAILSAFE triggered (top-left). Stopped."
	StatusPanic        = "PANIC STOP!"
	statusCountdownFmt = "Starting in %ds... (F9 PANIC / top-left FAILSAFE)"
)

// runState lives for exactly one run. count and nextTick are only touched by
// the scheduler goroutine; stop may be set from anywhere.
type runState struct {
	count    int
	nextTick time.Time
	stop     atomic.Bool
}

// Scheduler drives one run of clicks at a fixed rate. Create a new one per
// run; a Scheduler is not reusable once Run has returned.
type Scheduler struct {
	cfg      ClickConfig
	interval time.Duration
	synth    Synthesizer
	clock    Clock
	logger   Logger
	emit     func(RunEvent)
	runID    uint64

	state runState
}

func NewScheduler(cfg ClickConfig, synth Synthesizer, clock Clock, logger Logger, emit func(RunEvent)) (*Scheduler, error) {
	if synth == nil {
		return nil, fmt.Errorf("synthesizer is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if clock == nil {
		clock = SystemClock
	}
	if emit == nil {
		emit = func(RunEvent) {}
	}
	return &Scheduler{
		cfg:      cfg,
		interval: cfg.EffectiveInterval(),
		synth:    synth,
		clock:    clock,
		logger:   logger,
		emit:     emit,
	}, nil
}

// Stop requests a cooperative stop. Safe to call from any goroutine, any
// number of times.
func (s *Scheduler) Stop() {
	s.state.stop.Store(true)
}

func (s *Scheduler) Stopped() bool {
	return s.state.stop.Load()
}

// Clicks returns the count so far. Only meaningful once Run has returned or
// from the scheduler goroutine itself.
func (s *Scheduler) Clicks() int {
	return s.state.count
}

func (s *Scheduler) send(kind EventKind, clicks int, message string) {
	s.emit(RunEvent{Kind: kind, RunID: s.runID, Clicks: clicks, Message: message})
}

func (s *Scheduler) status(message string) {
	s.send(EventStatus, 0, message)
}

// Run executes the whole run on the calling goroutine. It always emits
// exactly one EventStopped, and it is the last event of the run.
func (s *Scheduler) Run() {
	defer s.send(EventStopped, 0, "")
	defer func() {
		if recovered := recover(); recovered != nil {
			s.state.stop.Store(true)
			s.logger.Error("Click worker panicked", "panic", recovered)
			s.send(EventError, 0, fmt.Sprint(recovered))
		}
	}()

	if !s.countdown() {
		s.logger.Info("Run cancelled during start delay")
		return
	}

	s.status(StatusRunning)
	s.send(EventStarted, 0, "")
	s.logger.Info("Click run started", "interval", s.interval, "button", s.cfg.Button, "double", s.cfg.DoubleClick, "limit", s.cfg.MaxClicks)

	s.state.nextTick = s.clock.Now()
	for !s.state.stop.Load() {
		if err := s.pass(); err != nil {
			s.state.stop.Store(true)
			s.logger.Error("Click failed", "err", err, "clicks", s.state.count)
			s.send(EventError, 0, err.Error())
			return
		}
	}
	s.logger.Info("Click run stopped", "clicks", s.state.count)
}

// countdown reports false when the run was stopped while a countdown was
// in progress. Without a start delay it always reports true.
func (s *Scheduler) countdown() bool {
	for remaining := s.cfg.StartDelay; remaining > 0; remaining-- {
		if s.state.stop.Load() {
			return false
		}
		s.status(fmt.Sprintf(statusCountdownFmt, remaining))

		deadline := s.clock.Now().Add(time.Second)
		for {
			if s.state.stop.Load() {
				return false
			}
			left := deadline.Sub(s.clock.Now())
			if left <= 0 {
				break
			}
			s.clock.Sleep(min(countdownPoll, left))
		}
	}
	return true
}

// pass is one iteration of the outer loop: either a bounded catch-up burst
// or one short sleep. A non-nil error is a synthesizer failure.
func (s *Scheduler) pass() error {
	now := s.clock.Now()
	if now.Before(s.state.nextTick) {
		s.clock.Sleep(min(SleepGranularity, s.state.nextTick.Sub(now)))
		return nil
	}

	for caught := 0; caught < MaxCatchUp && !now.Before(s.state.nextTick) && !s.state.stop.Load(); caught++ {
		added, err := s.clickOnce()
		if errors.Is(err, ErrFailsafe) {
			s.state.stop.Store(true)
			s.logger.Warn("Failsafe triggered", "clicks", s.state.count)
			s.status(StatusFailsafe)
			return nil
		}
		if err != nil {
			return err
		}

		s.state.count += added
		s.send(EventTick, s.state.count, "")

		if s.cfg.MaxClicks > 0 && s.state.count >= s.cfg.MaxClicks {
			s.state.stop.Store(true)
			s.status(StatusLimitReached)
			return nil
		}

		s.state.nextTick = s.state.nextTick.Add(s.interval)
		now = s.clock.Now()
	}
	return nil
}

func (s *Scheduler) clickOnce() (int, error) {
	if s.cfg.Fixed.Enabled {
		if err := s.synth.MoveTo(s.cfg.Fixed.X, s.cfg.Fixed.Y); err != nil {
			return 0, fmt.Errorf("move to (%d, %d): %w", s.cfg.Fixed.X, s.cfg.Fixed.Y, err)
		}
	}
	clicks := s.cfg.ClicksPerTick()
	if err := s.synth.Click(s.cfg.Button, clicks); err != nil {
		return 0, fmt.Errorf("click %s: %w", s.cfg.Button, err)
	}
	return clicks, nil
}
