package autoclicker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const DefaultJoinTimeout = 2 * time.Second

var ErrControllerClosed = errors.New("controller is closed")

type ControllerConfig struct {
	Synthesizer Synthesizer
	Logger      Logger
	Clock       Clock
	// Settings supplies the current front-end values each time Start is
	// called without an explicit snapshot.
	Settings func() Settings
	// OnEvent receives every RunEvent in emission order on a single
	// delivery goroutine.
	OnEvent     func(RunEvent)
	JoinTimeout time.Duration
}

type activeRun struct {
	id        uint64
	scheduler *Scheduler
	done      chan struct{}
}

// Controller owns at most one active run and bridges UI actions and global
// hotkeys to it.
type Controller struct {
	synth       Synthesizer
	logger      Logger
	clock       Clock
	settings    func() Settings
	onEvent     func(RunEvent)
	joinTimeout time.Duration

	events      *eventQueue
	deliverDone chan struct{}

	mu     sync.Mutex
	active *activeRun
	nextID uint64
	closed bool

	hotkeyMu   sync.Mutex
	hotkeys    HotkeyListener
	hotkeyCh   chan func()
	quitCh     chan struct{}
	hotkeyDone chan struct{}
	closeOnce  sync.Once
}

func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer is nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = DefaultJoinTimeout
	}

	c := &Controller{
		synth:       cfg.Synthesizer,
		logger:      cfg.Logger,
		clock:       cfg.Clock,
		settings:    cfg.Settings,
		onEvent:     cfg.OnEvent,
		joinTimeout: cfg.JoinTimeout,
		events:      newEventQueue(),
		deliverDone: make(chan struct{}),
		hotkeyCh:    make(chan func(), 16),
		quitCh:      make(chan struct{}),
		hotkeyDone:  make(chan struct{}),
	}

	go func() {
		defer close(c.deliverDone)
		c.events.drain(c.deliver)
	}()
	go c.hotkeyLoop()
	return c, nil
}

func (c *Controller) deliver(event RunEvent) {
	if c.onEvent == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			c.logger.Error("Event observer panicked", "event", event.Kind.String(), "panic", recovered)
		}
	}()
	c.onEvent(event)
}

// Start begins a run from the current settings. It is a no-op when a run is
// already active and returns a *ValidationError for invalid settings.
func (c *Controller) Start() error {
	if c.Running() {
		c.logger.Debug("Start ignored, run already active", "run", c.ActiveRunID())
		return nil
	}
	if c.settings == nil {
		return fmt.Errorf("no settings source configured")
	}
	cfg, err := NewClickConfig(c.settings())
	if err != nil {
		return err
	}
	return c.StartWith(cfg)
}

func (c *Controller) StartWith(cfg ClickConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if c.active != nil {
		c.logger.Debug("Start ignored, run already active", "run", c.active.id)
		return nil
	}

	scheduler, err := NewScheduler(cfg, c.synth, c.clock, c.logger, func(event RunEvent) {
		c.events.push(event)
	})
	if err != nil {
		return err
	}

	c.nextID++
	scheduler.runID = c.nextID
	run := &activeRun{id: c.nextID, scheduler: scheduler, done: make(chan struct{})}
	c.active = run

	c.logger.Info("Starting click run", "run", run.id, "config", cfg.Summary())
	go func() {
		defer c.release(run)
		defer close(run.done)
		scheduler.Run()
	}()
	return nil
}

func (c *Controller) release(run *activeRun) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == run {
		c.active = nil
	}
}

// Stop requests a cooperative stop and waits up to the join timeout for the
// worker to exit. The run is released even if the worker is wedged.
func (c *Controller) Stop() {
	c.mu.Lock()
	run := c.active
	c.mu.Unlock()
	if run == nil {
		return
	}

	run.scheduler.Stop()

	timer := time.NewTimer(c.joinTimeout)
	defer timer.Stop()
	select {
	case <-run.done:
	case <-timer.C:
		c.logger.Warn("Click worker did not exit in time, releasing it", "run", run.id, "timeout", c.joinTimeout)
	}
	c.release(run)
}

func (c *Controller) Toggle() error {
	if c.Running() {
		c.Stop()
		return nil
	}
	return c.Start()
}

// Panic publishes StatusPanic ahead of anything else the worker still emits
// and then stops the active run.
func (c *Controller) Panic() {
	c.logger.Warn("Panic stop requested")
	c.events.push(RunEvent{Kind: EventStatus, RunID: c.ActiveRunID(), Message: StatusPanic})
	c.Stop()
}

func (c *Controller) PickCurrentPointerPosition() (Point, error) {
	return c.synth.CurrentPosition()
}

func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// ActiveRunID identifies the active worker, 0 when idle.
func (c *Controller) ActiveRunID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return 0
	}
	return c.active.id
}

// BindHotkeys starts listener with toggle/panic wired to this controller.
// An unavailable listener is logged and otherwise ignored.
func (c *Controller) BindHotkeys(listener HotkeyListener) error {
	if listener == nil || !listener.Available() {
		c.logger.Info("Global hotkeys unavailable; use the window controls")
		return nil
	}

	c.hotkeyMu.Lock()
	defer c.hotkeyMu.Unlock()

	select {
	case <-c.quitCh:
		return ErrControllerClosed
	default:
	}
	if c.hotkeys != nil {
		c.hotkeys.Stop()
		c.hotkeys = nil
	}
	if err := listener.Start(
		func() { c.dispatchHotkey("toggle", c.toggleFromHotkey) },
		func() { c.dispatchHotkey("panic", c.Panic) },
	); err != nil {
		return fmt.Errorf("start global hotkeys: %w", err)
	}
	c.hotkeys = listener
	return nil
}

// UnbindHotkeys stops the bound listener, if any. A run in progress keeps
// going and can still be stopped from the window.
func (c *Controller) UnbindHotkeys() {
	c.hotkeyMu.Lock()
	defer c.hotkeyMu.Unlock()

	if c.hotkeys != nil {
		c.hotkeys.Stop()
		c.hotkeys = nil
	}
}

func (c *Controller) toggleFromHotkey() {
	if err := c.Toggle(); err != nil {
		c.logger.Warn("Hotkey start rejected", "err", err)
		c.events.push(RunEvent{Kind: EventError, Message: err.Error()})
	}
}

func (c *Controller) dispatchHotkey(name string, action func()) {
	select {
	case <-c.quitCh:
	case c.hotkeyCh <- action:
	default:
		c.logger.Warn("Hotkey dropped, dispatcher busy", "hotkey", name)
	}
}

func (c *Controller) hotkeyLoop() {
	defer close(c.hotkeyDone)
	for {
		select {
		case <-c.quitCh:
			return
		case action := <-c.hotkeyCh:
			action()
		}
	}
}

// Close stops hotkeys and any active run, then flushes pending events to
// the observer.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.quitCh)
		c.UnbindHotkeys()
		<-c.hotkeyDone

		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.Stop()

		c.events.close()
		<-c.deliverDone
	})
}
