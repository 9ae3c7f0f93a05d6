package autoclicker

import (
	"errors"
	"fmt"
	"time"
)

const MinInterval = time.Millisecond

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// Settings is the raw configuration surface as a front-end collects it.
type Settings struct {
	Minutes           int
	Seconds           int
	Milliseconds      int
	Button            string
	DoubleClick       bool
	MaxClicks         int
	StartDelaySeconds int
	FixedPosition     bool
	X                 int
	Y                 int
}

func (s Settings) Interval() time.Duration {
	return time.Duration(s.Minutes)*time.Minute +
		time.Duration(s.Seconds)*time.Second +
		time.Duration(s.Milliseconds)*time.Millisecond
}

type FixedPosition struct {
	Enabled bool
	X       int
	Y       int
}

// ClickConfig is the immutable snapshot of one run. Pass it by value.
type ClickConfig struct {
	Interval    time.Duration
	Button      Button
	DoubleClick bool
	MaxClicks   int
	StartDelay  int
	Fixed       FixedPosition
}

func NewClickConfig(s Settings) (ClickConfig, error) {
	if s.Minutes < 0 {
		return ClickConfig{}, &ValidationError{Field: "minutes", Reason: "must be >= 0"}
	}
	if s.Seconds < 0 {
		return ClickConfig{}, &ValidationError{Field: "seconds", Reason: "must be >= 0"}
	}
	if s.Milliseconds < 0 {
		return ClickConfig{}, &ValidationError{Field: "milliseconds", Reason: "must be >= 0"}
	}

	button, err := ParseButton(s.Button)
	if err != nil {
		return ClickConfig{}, &ValidationError{Field: "button", Reason: err.Error()}
	}

	cfg := ClickConfig{
		Interval:    s.Interval(),
		Button:      button,
		DoubleClick: s.DoubleClick,
		MaxClicks:   s.MaxClicks,
		StartDelay:  s.StartDelaySeconds,
		Fixed: FixedPosition{
			Enabled: s.FixedPosition,
			X:       s.X,
			Y:       s.Y,
		},
	}
	if err := cfg.Validate(); err != nil {
		return ClickConfig{}, err
	}
	return cfg, nil
}

func (c ClickConfig) Validate() error {
	if c.Interval < MinInterval {
		return &ValidationError{Field: "interval", Reason: "must be > 0ms (set at least 1ms)"}
	}
	switch c.Button {
	case ButtonLeft, ButtonRight, ButtonMiddle:
	default:
		return &ValidationError{Field: "button", Reason: fmt.Sprintf("unknown button %q", c.Button)}
	}
	if c.MaxClicks < 0 {
		return &ValidationError{Field: "click limit", Reason: "must be >= 0 (0 = infinite)"}
	}
	if c.StartDelay < 0 {
		return &ValidationError{Field: "start delay", Reason: "must be >= 0"}
	}
	return nil
}

// EffectiveInterval is the interval the scheduler runs at, floored at
// MinInterval even for snapshots that skipped validation.
func (c ClickConfig) EffectiveInterval() time.Duration {
	if c.Interval < MinInterval {
		return MinInterval
	}
	return c.Interval
}

func (c ClickConfig) ClicksPerTick() int {
	if c.DoubleClick {
		return 2
	}
	return 1
}

func (c ClickConfig) CPS() float64 {
	return float64(c.ClicksPerTick()) / c.EffectiveInterval().Seconds()
}

func (c ClickConfig) Summary() string {
	mode := "single"
	if c.DoubleClick {
		mode = "double"
	}
	limit := "infinite"
	if c.MaxClicks > 0 {
		limit = fmt.Sprintf("%d", c.MaxClicks)
	}
	target := "cursor"
	if c.Fixed.Enabled {
		target = fmt.Sprintf("(%d, %d)", c.Fixed.X, c.Fixed.Y)
	}
	ms := float64(c.EffectiveInterval()) / float64(time.Millisecond)
	return fmt.Sprintf(
		"%s | %s | interval=%.1fms (~%.1f CPS) | limit=%s | delay=%ds | target=%s",
		c.Button, mode, ms, c.CPS(), limit, c.StartDelay, target,
	)
}
