package autoclicker

import (
	"errors"
	"testing"
)

func TestFailsafeBlocksMoveAndClickAtCorner(t *testing.T) {
	inner := &recordingSynth{pos: Point{}}
	synth := WithFailsafe(inner)

	if err := synth.MoveTo(10, 10); !errors.Is(err, ErrFailsafe) {
		t.Fatalf("MoveTo() error = %v, want ErrFailsafe", err)
	}
	if err := synth.Click(ButtonLeft, 1); !errors.Is(err, ErrFailsafe) {
		t.Fatalf("Click() error = %v, want ErrFailsafe", err)
	}
	if len(inner.moveSnapshot()) != 0 || len(inner.clickSnapshot()) != 0 {
		t.Fatalf("expected no input to reach the backend")
	}
}

func TestFailsafeHonoursCustomCorners(t *testing.T) {
	inner := &recordingSynth{pos: Point{X: 0, Y: 0}}
	synth := WithFailsafe(inner, Point{X: 1919, Y: 1079})

	if err := synth.Click(ButtonLeft, 1); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	inner.setPosition(Point{X: 1919, Y: 1079})
	if err := synth.Click(ButtonLeft, 1); !errors.Is(err, ErrFailsafe) {
		t.Fatalf("Click() error = %v, want ErrFailsafe", err)
	}
}

func TestFailsafeSkippedWhenPositionUnsupported(t *testing.T) {
	inner := &recordingSynth{posErr: ErrUnsupported}
	synth := WithFailsafe(inner)

	if err := synth.Click(ButtonRight, 2); err != nil {
		t.Fatalf("Click() error = %v", err)
	}
	if got := inner.clickSnapshot(); len(got) != 1 || got[0].Count != 2 {
		t.Fatalf("unexpected clicks %#v", got)
	}
}

func TestFailsafePropagatesPositionErrors(t *testing.T) {
	boom := errors.New("query pointer failed")
	synth := WithFailsafe(&recordingSynth{posErr: boom})

	err := synth.Click(ButtonLeft, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("Click() error = %v, want %v", err, boom)
	}
	if errors.Is(err, ErrFailsafe) {
		t.Fatalf("position errors must not look like the failsafe")
	}
}
