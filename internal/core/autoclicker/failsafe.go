package autoclicker

import (
	"errors"
	"fmt"
)

// DefaultFailsafeCorners is the top-left screen corner.
var DefaultFailsafeCorners = []Point{{X: 0, Y: 0}}

type failsafeSynthesizer struct {
	inner   Synthesizer
	corners []Point
}

// WithFailsafe wraps inner so that MoveTo and Click fail with ErrFailsafe
// while the pointer rests on one of corners. When inner cannot report the
// pointer position (ErrUnsupported) the check is skipped.
func WithFailsafe(inner Synthesizer, corners ...Point) Synthesizer {
	if len(corners) == 0 {
		corners = DefaultFailsafeCorners
	}
	return &failsafeSynthesizer{inner: inner, corners: corners}
}

func (f *failsafeSynthesizer) check() error {
	pos, err := f.inner.CurrentPosition()
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return nil
		}
		return err
	}
	for _, corner := range f.corners {
		if pos == corner {
			return fmt.Errorf("pointer at (%d, %d): %w", pos.X, pos.Y, ErrFailsafe)
		}
	}
	return nil
}

func (f *failsafeSynthesizer) MoveTo(x, y int) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.inner.MoveTo(x, y)
}

func (f *failsafeSynthesizer) Click(button Button, count int) error {
	if err := f.check(); err != nil {
		return err
	}
	return f.inner.Click(button, count)
}

func (f *failsafeSynthesizer) CurrentPosition() (Point, error) {
	return f.inner.CurrentPosition()
}
