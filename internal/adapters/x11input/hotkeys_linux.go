//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"sync"

	"github.com/therealpixeles/PyClicker/internal/adapters/linuxinput"
	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

type hotkeyAction int

const (
	actionToggle hotkeyAction = iota + 1
	actionPanic
)

// HotkeyListener grabs the toggle and panic keys on the X11 root window so
// they fire regardless of which window has focus.
type HotkeyListener struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
	logger  autoclicker.Logger

	actions map[xproto.Keycode]hotkeyAction
	grabbed []xproto.Keycode

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

var _ autoclicker.HotkeyListener = (*HotkeyListener)(nil)

func NewHotkeyListener(toggleCode, panicCode uint16, logger autoclicker.Logger) (*HotkeyListener, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, fmt.Errorf("failed to open X11 connection")
	}
	keybind.Initialize(xu)

	h := &HotkeyListener{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
		logger:  logger,
		actions: make(map[xproto.Keycode]hotkeyAction),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	if err := h.bind(toggleCode, actionToggle); err != nil {
		conn.Close()
		return nil, fmt.Errorf("toggle binding: %w", err)
	}
	if err := h.bind(panicCode, actionPanic); err != nil {
		conn.Close()
		return nil, fmt.Errorf("panic binding: %w", err)
	}
	if err := h.grabAll(); err != nil {
		h.ungrabAll()
		conn.Close()
		return nil, err
	}
	return h, nil
}

func (h *HotkeyListener) bind(code uint16, action hotkeyAction) error {
	keysym, ok := keysymForCode(code)
	if !ok {
		return fmt.Errorf("unsupported X11 key code %s", linuxinput.FormatCodeName(code))
	}
	keycodes := keybind.StrToKeycodes(h.xu, keysym)
	if len(keycodes) == 0 {
		return fmt.Errorf("failed to resolve X11 key %q", keysym)
	}
	for _, keycode := range keycodes {
		if existing, ok := h.actions[keycode]; ok && existing != action {
			return fmt.Errorf("toggle and panic resolve to the same X11 keycode")
		}
		h.actions[keycode] = action
	}
	return nil
}

func (h *HotkeyListener) grabAll() error {
	keys := make([]xproto.Keycode, 0, len(h.actions))
	for key := range h.actions {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		if err := xproto.GrabKeyChecked(
			h.conn,
			false,
			h.rootWin,
			xproto.ModMaskAny,
			key,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Check(); err != nil {
			return fmt.Errorf("grab keycode %d: %w", key, err)
		}
		h.grabbed = append(h.grabbed, key)
	}
	return nil
}

func (h *HotkeyListener) ungrabAll() {
	for _, key := range h.grabbed {
		xproto.UngrabKey(h.conn, key, h.rootWin, xproto.ModMaskAny)
	}
	h.grabbed = nil
}

func (h *HotkeyListener) Available() bool { return true }

func (h *HotkeyListener) Start(onToggle, onPanic func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("hotkey listener already started")
	}
	h.started = true
	go h.eventLoop(onToggle, onPanic)
	return nil
}

func (h *HotkeyListener) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)

		h.mu.Lock()
		started := h.started
		h.ungrabAll()
		h.conn.Close()
		h.mu.Unlock()

		if started {
			<-h.doneCh
		}
	})
}

func (h *HotkeyListener) eventLoop(onToggle, onPanic func()) {
	defer close(h.doneCh)

	lastRelease := make(map[xproto.Keycode]xproto.Timestamp)
	for {
		event, xerr := h.conn.WaitForEvent()
		if xerr != nil {
			select {
			case <-h.stopCh:
				return
			default:
			}
			h.logger.Warn("X11 event error", "err", xerr)
			continue
		}
		if event == nil {
			return
		}

		var press xproto.KeyPressEvent
		switch ev := event.(type) {
		case xproto.KeyReleaseEvent:
			lastRelease[ev.Detail] = ev.Time
			continue
		case xproto.KeyPressEvent:
			press = ev
		default:
			continue
		}
		// Auto-repeat arrives as a release/press pair with one timestamp.
		if released, ok := lastRelease[press.Detail]; ok && released == press.Time {
			continue
		}
		switch h.actions[press.Detail] {
		case actionToggle:
			h.logger.Debug("Toggle hotkey pressed", "keycode", press.Detail)
			onToggle()
		case actionPanic:
			h.logger.Debug("Panic hotkey pressed", "keycode", press.Detail)
			onPanic()
		}
	}
}
