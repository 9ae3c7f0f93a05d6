package autoclicker

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

func ParseButton(value string) (Button, error) {
	switch Button(strings.ToLower(strings.TrimSpace(value))) {
	case ButtonLeft:
		return ButtonLeft, nil
	case ButtonRight:
		return ButtonRight, nil
	case ButtonMiddle:
		return ButtonMiddle, nil
	default:
		return "", fmt.Errorf("unknown button %q (expected left|right|middle)", value)
	}
}

type Point struct {
	X int
	Y int
}

var (
	// ErrFailsafe is returned by a Synthesizer when the pointer sits on a
	// reserved corner. Backends wrap it; callers match with errors.Is.
	ErrFailsafe = errors.New("failsafe triggered")

	// ErrUnsupported marks an operation the backend cannot perform.
	ErrUnsupported = errors.New("operation not supported by input backend")
)

// Synthesizer injects pointer input. Implementations must be safe to call
// from the scheduler goroutine while CurrentPosition is called from another.
type Synthesizer interface {
	MoveTo(x, y int) error
	Click(button Button, count int) error
	CurrentPosition() (Point, error)
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock. time.Now carries a monotonic reading, so
// interval arithmetic is immune to wall-clock adjustments.
var SystemClock Clock = systemClock{}

type EventKind int

const (
	EventStarted EventKind = iota
	EventTick
	EventStatus
	EventError
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventTick:
		return "tick"
	case EventStatus:
		return "status"
	case EventError:
		return "error"
	case EventStopped:
		return "stopped"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// RunEvent is one entry of a run's event stream. Clicks is set for
// EventTick, Message for EventStatus and EventError.
type RunEvent struct {
	Kind    EventKind
	RunID   uint64
	Clicks  int
	Message string
}
