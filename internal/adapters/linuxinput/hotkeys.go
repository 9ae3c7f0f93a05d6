//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

type HotkeyConfig struct {
	ToggleCode uint16
	PanicCode  uint16
	// DevicePath restricts listening to one device. Empty means every
	// physical keyboard exposing both codes.
	DevicePath string
}

// HotkeyListener watches evdev keyboards for the toggle and panic keys.
// Reading /dev/input usually requires the input group or root.
type HotkeyListener struct {
	cfg     HotkeyConfig
	logger  autoclicker.Logger
	devices []*evdev.InputDevice

	mu       sync.Mutex
	started  bool
	stopCh   chan struct{}
	stopOnce sync.Once
	readers  sync.WaitGroup
}

var _ autoclicker.HotkeyListener = (*HotkeyListener)(nil)

func NewHotkeyListener(cfg HotkeyConfig, logger autoclicker.Logger) (*HotkeyListener, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	if cfg.ToggleCode == cfg.PanicCode {
		return nil, fmt.Errorf("toggle and panic keys must differ (both %s)", FormatCodeName(cfg.ToggleCode))
	}

	devices, err := openHotkeySources(cfg.DevicePath, cfg.ToggleCode, cfg.PanicCode)
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if err := dev.NonBlock(); err != nil {
			closeInputDevices(devices)
			return nil, fmt.Errorf("failed to set nonblocking mode for %s: %w", dev.Path(), err)
		}
	}

	return &HotkeyListener{
		cfg:     cfg,
		logger:  logger,
		devices: devices,
		stopCh:  make(chan struct{}),
	}, nil
}

func (h *HotkeyListener) Available() bool { return true }

func (h *HotkeyListener) Start(onToggle, onPanic func()) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("hotkey listener already started")
	}
	if h.isStopped() {
		return fmt.Errorf("hotkey listener stopped")
	}
	h.started = true

	for _, dev := range h.devices {
		name, _ := dev.Name()
		h.logger.Info("Listening for hotkeys",
			"path", dev.Path(),
			"name", name,
			"toggle", FormatCodeName(h.cfg.ToggleCode),
			"panic", FormatCodeName(h.cfg.PanicCode),
		)
		h.readers.Add(1)
		go h.readLoop(dev, onToggle, onPanic)
	}
	return nil
}

func (h *HotkeyListener) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		closeInputDevices(h.devices)
		h.readers.Wait()
	})
}

func (h *HotkeyListener) readLoop(dev *evdev.InputDevice, onToggle, onPanic func()) {
	defer h.readers.Done()

	path := dev.Path()
	for {
		events, err := dev.ReadSlice(64)
		if err != nil {
			if h.isStopped() || isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !sleepUntilStopped(h.stopCh, 10*time.Millisecond) {
					return
				}
				continue
			}
			h.logger.Warn("Read failed", "path", path, "err", err)
			if !sleepUntilStopped(h.stopCh, 100*time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if event.Type != evdev.EV_KEY || event.Value != 1 {
				continue
			}
			switch uint16(event.Code) {
			case h.cfg.ToggleCode:
				h.logger.Debug("Toggle hotkey pressed", "path", path)
				onToggle()
			case h.cfg.PanicCode:
				h.logger.Debug("Panic hotkey pressed", "path", path)
				onPanic()
			}
		}
	}
}

func (h *HotkeyListener) isStopped() bool {
	select {
	case <-h.stopCh:
		return true
	default:
		return false
	}
}

func sleepUntilStopped(stop <-chan struct{}, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

func closeInputDevices(devices []*evdev.InputDevice) {
	for _, dev := range devices {
		_ = dev.Close()
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, syscall.EBADF) || errors.Is(err, syscall.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}
