//go:build windows

package wininput

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

const (
	inputMouse = 0

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
)

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
}

// Synthesizer injects mouse input with SendInput and moves the cursor with
// SetCursorPos.
type Synthesizer struct {
	mu sync.Mutex
}

var _ autoclicker.Synthesizer = (*Synthesizer)(nil)

func NewSynthesizer() (*Synthesizer, error) {
	for _, proc := range []interface{ Find() error }{procSendInput, procSetCursorPos, procGetCursorPos} {
		if err := proc.Find(); err != nil {
			return nil, err
		}
	}
	return &Synthesizer{}, nil
}

func buttonFlags(button autoclicker.Button) (down, up uint32, err error) {
	switch button {
	case autoclicker.ButtonLeft:
		return mouseeventfLeftDown, mouseeventfLeftUp, nil
	case autoclicker.ButtonRight:
		return mouseeventfRightDown, mouseeventfRightUp, nil
	case autoclicker.ButtonMiddle:
		return mouseeventfMiddleDown, mouseeventfMiddleUp, nil
	default:
		return 0, 0, fmt.Errorf("unsupported button %q", button)
	}
}

func (s *Synthesizer) MoveTo(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, _, callErr := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ok == 0 {
		if callFailed(callErr) {
			return fmt.Errorf("SetCursorPos(%d, %d): %w", x, y, callErr)
		}
		return fmt.Errorf("SetCursorPos(%d, %d) failed", x, y)
	}
	return nil
}

func (s *Synthesizer) Click(button autoclicker.Button, count int) error {
	down, up, err := buttonFlags(button)
	if err != nil {
		return err
	}
	if count <= 0 {
		return nil
	}

	inputs := make([]input, 0, count*2)
	for i := 0; i < count; i++ {
		inputs = append(inputs,
			input{Type: inputMouse, Mi: mouseInput{DwFlags: down}},
			input{Type: inputMouse, Mi: mouseInput{DwFlags: up}},
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sent, _, callErr := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if sent != uintptr(len(inputs)) {
		if callFailed(callErr) {
			return callErr
		}
		return fmt.Errorf("SendInput sent %d of %d inputs", sent, len(inputs))
	}
	return nil
}

func (s *Synthesizer) CurrentPosition() (autoclicker.Point, error) {
	var pt point
	ok, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if ok == 0 {
		if callFailed(callErr) {
			return autoclicker.Point{}, fmt.Errorf("GetCursorPos: %w", callErr)
		}
		return autoclicker.Point{}, fmt.Errorf("GetCursorPos failed")
	}
	return autoclicker.Point{X: int(pt.X), Y: int(pt.Y)}, nil
}

func (s *Synthesizer) Close() error {
	return nil
}
