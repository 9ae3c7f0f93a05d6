package autoclicker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type controllerHarness struct {
	ctrl     *Controller
	synth    *recordingSynth
	rec      *eventRecorder
	settings Settings
	mu       sync.Mutex
	stopped  chan uint64
}

func newControllerHarness(t *testing.T, settings Settings, synth *recordingSynth) *controllerHarness {
	t.Helper()
	if synth == nil {
		synth = &recordingSynth{pos: Point{X: 100, Y: 100}}
	}
	h := &controllerHarness{
		synth:    synth,
		rec:      &eventRecorder{},
		settings: settings,
		stopped:  make(chan uint64, 16),
	}
	ctrl, err := NewController(ControllerConfig{
		Synthesizer: synth,
		Logger:      noopLogger{},
		Settings: func() Settings {
			h.mu.Lock()
			defer h.mu.Unlock()
			return h.settings
		},
		OnEvent: func(event RunEvent) {
			h.rec.record(event)
			if event.Kind == EventStopped {
				h.stopped <- event.RunID
			}
		},
		JoinTimeout: 2 * time.Second,
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	t.Cleanup(ctrl.Close)
	return h
}

func (h *controllerHarness) waitStopped(t *testing.T) uint64 {
	t.Helper()
	select {
	case id := <-h.stopped:
		return id
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for stopped event")
		return 0
	}
}

func (h *controllerHarness) eventsFor(runID uint64) []RunEvent {
	var out []RunEvent
	for _, event := range h.rec.snapshot() {
		if event.RunID == runID {
			out = append(out, event)
		}
	}
	return out
}

func fastSettings() Settings {
	return Settings{Milliseconds: 5, Button: "left"}
}

func TestControllerStartWhileActiveIsNoop(t *testing.T) {
	// One immediate click, then nothing for ten seconds.
	h := newControllerHarness(t, Settings{Seconds: 10, Button: "left"}, nil)

	require.NoError(t, h.ctrl.Start())
	first := h.ctrl.ActiveRunID()
	require.NotZero(t, first)
	require.Eventually(t, func() bool { return len(h.synth.clickSnapshot()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, h.ctrl.Start())
	require.NoError(t, h.ctrl.StartWith(ClickConfig{Interval: time.Millisecond, Button: ButtonRight}))
	require.Equal(t, first, h.ctrl.ActiveRunID())

	time.Sleep(20 * time.Millisecond)
	require.Len(t, h.synth.clickSnapshot(), 1, "second start must not have replaced the run")
	require.Equal(t, ButtonLeft, h.synth.clickSnapshot()[0].Button)

	h.ctrl.Stop()
	require.Equal(t, first, h.waitStopped(t))
	require.False(t, h.ctrl.Running())
	require.Equal(t, 1, countKind(h.rec.snapshot(), EventStarted))
	require.Len(t, h.synth.clickSnapshot(), 1)
}

func TestControllerToggleStartsThenStops(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), nil)

	require.NoError(t, h.ctrl.Toggle())
	require.True(t, h.ctrl.Running())

	require.NoError(t, h.ctrl.Toggle())
	require.False(t, h.ctrl.Running())

	id := h.waitStopped(t)
	events := h.eventsFor(id)
	require.Equal(t, EventStopped, events[len(events)-1].Kind)
}

func TestControllerStartRejectsInvalidSettings(t *testing.T) {
	h := newControllerHarness(t, Settings{Button: "left"}, nil)

	err := h.ctrl.Start()
	require.Error(t, err)
	require.True(t, IsValidationError(err))
	require.False(t, h.ctrl.Running())
	require.Zero(t, h.ctrl.ActiveRunID())
	require.Empty(t, h.synth.clickSnapshot())
}

func TestControllerReleasesRunThatEndsByItself(t *testing.T) {
	settings := Settings{Milliseconds: 1, Button: "left", MaxClicks: 3}
	h := newControllerHarness(t, settings, nil)

	require.NoError(t, h.ctrl.Start())
	first := h.waitStopped(t)
	require.Eventually(t, func() bool { return !h.ctrl.Running() }, time.Second, 5*time.Millisecond)

	events := h.eventsFor(first)
	require.Equal(t, []int{1, 2, 3}, ticks(events))
	require.Contains(t, statuses(events), StatusLimitReached)

	require.NoError(t, h.ctrl.Toggle())
	second := h.waitStopped(t)
	require.NotEqual(t, first, second)
	require.Equal(t, []int{1, 2, 3}, ticks(h.eventsFor(second)), "a new run starts from a fresh counter")
}

func TestControllerPanicPublishesStatusAndStops(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), nil)

	require.NoError(t, h.ctrl.Start())
	id := h.ctrl.ActiveRunID()
	h.ctrl.Panic()
	require.False(t, h.ctrl.Running())
	require.Equal(t, id, h.waitStopped(t))

	events := h.eventsFor(id)
	require.Contains(t, statuses(events), StatusPanic)
	require.Equal(t, 1, countKind(events, EventStopped))
	require.Equal(t, EventStopped, events[len(events)-1].Kind)
}

func TestControllerStopIsBoundedWhenWorkerIsWedged(t *testing.T) {
	unblock := make(chan struct{})
	synth := &recordingSynth{pos: Point{X: 5, Y: 5}}
	synth.clickHook = func(int) error {
		<-unblock
		return nil
	}

	h := newControllerHarness(t, fastSettings(), synth)
	h.ctrl.joinTimeout = 50 * time.Millisecond

	require.NoError(t, h.ctrl.Start())
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	h.ctrl.Stop()
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	require.Less(t, elapsed, time.Second)
	require.False(t, h.ctrl.Running())

	close(unblock)
	h.waitStopped(t)
}

func TestControllerWorksWithoutHotkeys(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), nil)

	require.NoError(t, h.ctrl.BindHotkeys(UnavailableHotkeys{Reason: "no display"}))
	require.NoError(t, h.ctrl.BindHotkeys(nil))

	require.NoError(t, h.ctrl.Start())
	require.True(t, h.ctrl.Running())
	h.ctrl.Stop()
	h.waitStopped(t)
}

type fakeHotkeys struct {
	mu       sync.Mutex
	onToggle func()
	onPanic  func()
	stopped  bool
}

func (f *fakeHotkeys) Available() bool { return true }

func (f *fakeHotkeys) Start(onToggle, onPanic func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onToggle = onToggle
	f.onPanic = onPanic
	return nil
}

func (f *fakeHotkeys) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeHotkeys) pressToggle() {
	f.mu.Lock()
	fn := f.onToggle
	f.mu.Unlock()
	fn()
}

func (f *fakeHotkeys) pressPanic() {
	f.mu.Lock()
	fn := f.onPanic
	f.mu.Unlock()
	fn()
}

func TestControllerHotkeysDriveToggleAndPanic(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), nil)
	hk := &fakeHotkeys{}
	require.NoError(t, h.ctrl.BindHotkeys(hk))

	hk.pressToggle()
	require.Eventually(t, h.ctrl.Running, time.Second, 5*time.Millisecond)
	id := h.ctrl.ActiveRunID()

	hk.pressPanic()
	require.Equal(t, id, h.waitStopped(t))
	require.Eventually(t, func() bool { return !h.ctrl.Running() }, time.Second, 5*time.Millisecond)
	require.Contains(t, statuses(h.eventsFor(id)), StatusPanic)

	h.ctrl.Close()
	hk.mu.Lock()
	defer hk.mu.Unlock()
	require.True(t, hk.stopped)
}

func TestControllerUnbindHotkeysKeepsRunAndAllowsRebind(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), nil)
	first := &fakeHotkeys{}
	require.NoError(t, h.ctrl.BindHotkeys(first))

	first.pressToggle()
	require.Eventually(t, h.ctrl.Running, time.Second, 5*time.Millisecond)
	id := h.ctrl.ActiveRunID()

	h.ctrl.UnbindHotkeys()
	first.mu.Lock()
	require.True(t, first.stopped)
	first.mu.Unlock()
	require.True(t, h.ctrl.Running())
	require.Equal(t, id, h.ctrl.ActiveRunID())

	second := &fakeHotkeys{}
	require.NoError(t, h.ctrl.BindHotkeys(second))
	second.pressToggle()
	require.Equal(t, id, h.waitStopped(t))
	require.Eventually(t, func() bool { return !h.ctrl.Running() }, time.Second, 5*time.Millisecond)

	h.ctrl.UnbindHotkeys()
	h.ctrl.UnbindHotkeys()
	second.mu.Lock()
	require.True(t, second.stopped)
	second.mu.Unlock()

	h.ctrl.Close()
	require.ErrorIs(t, h.ctrl.BindHotkeys(&fakeHotkeys{}), ErrControllerClosed)
}

func TestControllerHotkeyToggleReportsValidationError(t *testing.T) {
	h := newControllerHarness(t, Settings{Button: "left"}, nil)
	hk := &fakeHotkeys{}
	require.NoError(t, h.ctrl.BindHotkeys(hk))

	hk.pressToggle()
	require.Eventually(t, func() bool {
		return countKind(h.rec.snapshot(), EventError) == 1
	}, time.Second, 5*time.Millisecond)
	require.False(t, h.ctrl.Running())
}

func TestControllerTickValuesNeverRegress(t *testing.T) {
	settings := Settings{Milliseconds: 1, Button: "left", DoubleClick: true, MaxClicks: 40}
	h := newControllerHarness(t, settings, nil)

	require.NoError(t, h.ctrl.Start())
	id := h.waitStopped(t)

	got := ticks(h.eventsFor(id))
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		require.Greater(t, got[i], got[i-1])
	}
	require.Equal(t, 40, got[len(got)-1])
}

func TestControllerCloseStopsActiveRunAndFlushes(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), nil)
	require.NoError(t, h.ctrl.Start())
	id := h.ctrl.ActiveRunID()

	h.ctrl.Close()

	events := h.eventsFor(id)
	require.NotEmpty(t, events)
	require.Equal(t, EventStopped, events[len(events)-1].Kind)
	require.ErrorIs(t, h.ctrl.Start(), ErrControllerClosed)
}

func TestControllerPickCurrentPointerPosition(t *testing.T) {
	h := newControllerHarness(t, fastSettings(), &recordingSynth{pos: Point{X: 640, Y: -12}})
	pos, err := h.ctrl.PickCurrentPointerPosition()
	require.NoError(t, err)
	require.Equal(t, Point{X: 640, Y: -12}, pos)
}
