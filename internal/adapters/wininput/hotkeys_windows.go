//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"golang.org/x/sys/windows"
)

const (
	whKeyboardLL = 13

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	llkhfLowerILInjected = 0x00000002
	llkhfInjected        = 0x00000010
)

var (
	keyboardHookCallback = windows.NewCallback(keyboardLLCallback)

	activeListener atomic.Pointer[HotkeyListener]
)

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

// HotkeyListener installs a low-level keyboard hook. Only one listener can
// be active per process because the hook callback is a process global.
type HotkeyListener struct {
	toggleVK uint32
	panicVK  uint32
	logger   autoclicker.Logger

	onToggle func()
	onPanic  func()

	// Held keys, so auto-repeat does not retrigger an action.
	toggleDown bool
	panicDown  bool

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	threadID atomic.Uint32
	loopDone chan struct{}
}

var _ autoclicker.HotkeyListener = (*HotkeyListener)(nil)

func NewHotkeyListener(toggleVK, panicVK uint32, logger autoclicker.Logger) (*HotkeyListener, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if toggleVK == panicVK {
		return nil, fmt.Errorf("toggle and panic keys must differ (both %s)", FormatKeyName(toggleVK))
	}
	return &HotkeyListener{
		toggleVK: toggleVK,
		panicVK:  panicVK,
		logger:   logger,
		loopDone: make(chan struct{}),
	}, nil
}

func (h *HotkeyListener) Available() bool { return true }

func (h *HotkeyListener) Start(onToggle, onPanic func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("hotkey listener already started")
	}
	if !activeListener.CompareAndSwap(nil, h) {
		return fmt.Errorf("another hotkey listener is already active")
	}
	h.onToggle = onToggle
	h.onPanic = onPanic
	h.started = true

	ready := make(chan error, 1)
	go h.hookLoop(ready)
	if err := <-ready; err != nil {
		<-h.loopDone
		return err
	}

	h.logger.Info("Listening for hotkeys",
		"toggle", FormatKeyName(h.toggleVK),
		"panic", FormatKeyName(h.panicVK),
	)
	return nil
}

func (h *HotkeyListener) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		started := h.started
		h.mu.Unlock()
		if !started {
			return
		}
		if threadID := h.threadID.Load(); threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
		}
		<-h.loopDone
	})
}

func (h *HotkeyListener) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(h.loopDone)
	defer activeListener.CompareAndSwap(h, nil)

	threadID, _, _ := procGetCurrentThreadID.Call()
	h.threadID.Store(uint32(threadID))

	hook, _, hookErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if hook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", hookErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(hook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			h.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if h := activeListener.Load(); h != nil {
			h.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

// handleKeyboardHook runs on the hook thread; the callbacks it invokes must
// not block or Windows drops the hook.
func (h *HotkeyListener) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}
	event := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&(llkhfInjected|llkhfLowerILInjected) != 0 {
		return
	}

	var pressed bool
	switch uint32(wParam) {
	case wmKeyDown, wmSysKeyDown:
		pressed = true
	case wmKeyUp, wmSysKeyUp:
		pressed = false
	default:
		return
	}

	switch event.VkCode {
	case h.toggleVK:
		if pressed && !h.toggleDown {
			h.onToggle()
		}
		h.toggleDown = pressed
	case h.panicVK:
		if pressed && !h.panicDown {
			h.onPanic()
		}
		h.panicDown = pressed
	}
}
