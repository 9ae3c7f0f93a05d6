//go:build linux

package linuxinput

import (
	"fmt"
	"sync"
	"time"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	evdev "github.com/holoplot/go-evdev"
)

const virtualDeviceName = "pyclicker-virtual-mouse"

type SynthesizerConfig struct {
	// ClickDown is how long each synthetic press is held.
	ClickDown time.Duration
}

// Synthesizer clicks through a uinput virtual mouse. It works under Wayland
// and on the console but cannot warp or query the pointer, so MoveTo and
// CurrentPosition report autoclicker.ErrUnsupported.
type Synthesizer struct {
	mu        sync.Mutex
	dev       *evdev.InputDevice
	clickDown time.Duration
}

func NewSynthesizer(cfg SynthesizerConfig) (*Synthesizer, error) {
	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE},
		// Without relative axes libinput does not classify the device as a
		// pointer and drops its button events.
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}
	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}

	dev, err := evdev.CreateDevice(virtualDeviceName, id, capabilities)
	if err != nil {
		return nil, fmt.Errorf("create uinput device: %w", err)
	}
	clickDown := cfg.ClickDown
	if clickDown < 0 {
		clickDown = 0
	}
	return &Synthesizer{dev: dev, clickDown: clickDown}, nil
}

func buttonCode(button autoclicker.Button) (evdev.EvCode, error) {
	switch button {
	case autoclicker.ButtonLeft:
		return evdev.BTN_LEFT, nil
	case autoclicker.ButtonRight:
		return evdev.BTN_RIGHT, nil
	case autoclicker.ButtonMiddle:
		return evdev.BTN_MIDDLE, nil
	default:
		return 0, fmt.Errorf("unsupported button %q", button)
	}
}

func (s *Synthesizer) MoveTo(x, y int) error {
	return fmt.Errorf("uinput backend cannot move to (%d, %d): %w", x, y, autoclicker.ErrUnsupported)
}

func (s *Synthesizer) CurrentPosition() (autoclicker.Point, error) {
	return autoclicker.Point{}, fmt.Errorf("uinput backend cannot read the pointer: %w", autoclicker.ErrUnsupported)
}

func (s *Synthesizer) Click(button autoclicker.Button, count int) error {
	code, err := buttonCode(button)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < count; i++ {
		if err := s.writeButton(code, 1); err != nil {
			return err
		}
		if s.clickDown > 0 {
			time.Sleep(s.clickDown)
		}
		if err := s.writeButton(code, 0); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) writeButton(code evdev.EvCode, value int32) error {
	events := []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: code, Value: value},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
	}
	for i := range events {
		if err := s.dev.WriteOne(&events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}
