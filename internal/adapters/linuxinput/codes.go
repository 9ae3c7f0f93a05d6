//go:build linux

package linuxinput

import (
	"fmt"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

const (
	CodeKeyF8 uint16 = uint16(evdev.KEY_F8)
	CodeKeyF9 uint16 = uint16(evdev.KEY_F9)
)

// ParseCode accepts evdev names (KEY_F8, BTN_SIDE), bare key names (F8, A,
// ESC) and numeric codes.
func ParseCode(value string) (uint16, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key code is empty")
	}
	if code, ok := evdev.KEYFromString[raw]; ok {
		return uint16(code), nil
	}
	if code, ok := evdev.KEYFromString["KEY_"+raw]; ok {
		return uint16(code), nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like F8/KEY_F8 or a numeric code", value)
	}
	if parsed < 0 || parsed > 0xFFFF {
		return 0, fmt.Errorf("key code out of range: %d", parsed)
	}
	return uint16(parsed), nil
}

func FormatCodeName(code uint16) string {
	name := evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code))
	if name != "" && !strings.EqualFold(name, "unknown") {
		return name
	}
	return strconv.Itoa(int(code))
}
