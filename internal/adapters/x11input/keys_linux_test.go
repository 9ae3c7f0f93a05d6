//go:build linux

package x11input

import (
	"testing"

	"github.com/therealpixeles/PyClicker/internal/adapters/linuxinput"
)

func TestKeysymForCode(t *testing.T) {
	cases := map[string]string{
		"KEY_F8":    "F8",
		"KEY_F12":   "F12",
		"KEY_A":     "a",
		"KEY_7":     "7",
		"KEY_ESC":   "Escape",
		"KEY_KP5":   "KP_5",
		"KEY_PAUSE": "Pause",
	}
	for name, want := range cases {
		code, err := linuxinput.ParseCode(name)
		if err != nil {
			t.Fatalf("ParseCode(%q): %v", name, err)
		}
		got, ok := keysymForCode(code)
		if !ok || got != want {
			t.Fatalf("keysymForCode(%s) = %q, %v; want %q", name, got, ok, want)
		}
	}
}

func TestKeysymForCodeRejectsModifiersAndButtons(t *testing.T) {
	for _, name := range []string{"KEY_LEFTSHIFT", "KEY_LEFTCTRL", "BTN_LEFT"} {
		code, err := linuxinput.ParseCode(name)
		if err != nil {
			t.Fatalf("ParseCode(%q): %v", name, err)
		}
		if got, ok := keysymForCode(code); ok {
			t.Fatalf("keysymForCode(%s) = %q, want rejection", name, got)
		}
	}
}

func TestClampToInt16(t *testing.T) {
	if got := clampToInt16(40000); got != 32767 {
		t.Fatalf("clampToInt16(40000) = %d", got)
	}
	if got := clampToInt16(-40000); got != -32768 {
		t.Fatalf("clampToInt16(-40000) = %d", got)
	}
	if got := clampToInt16(1920); got != 1920 {
		t.Fatalf("clampToInt16(1920) = %d", got)
	}
}
