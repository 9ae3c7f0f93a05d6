package wininput

import (
	"fmt"
	"strconv"
	"strings"
)

// Virtual-key codes used as defaults.
const (
	VKF8 uint32 = 0x77
	VKF9 uint32 = 0x78
)

var namedKeys = map[string]uint32{
	"ESC":        0x1B,
	"ENTER":      0x0D,
	"TAB":        0x09,
	"SPACE":      0x20,
	"BACKSPACE":  0x08,
	"PAUSE":      0x13,
	"CAPSLOCK":   0x14,
	"NUMLOCK":    0x90,
	"SCROLLLOCK": 0x91,
	"SYSRQ":      0x2C,
	"PAGEUP":     0x21,
	"PAGEDOWN":   0x22,
	"END":        0x23,
	"HOME":       0x24,
	"LEFT":       0x25,
	"UP":         0x26,
	"RIGHT":      0x27,
	"DOWN":       0x28,
	"INSERT":     0x2D,
	"DELETE":     0x2E,
	"MENU":       0x5D,
	"KPASTERISK": 0x6A,
	"KPPLUS":     0x6B,
	"KPMINUS":    0x6D,
	"KPDOT":      0x6E,
	"KPSLASH":    0x6F,
	"SEMICOLON":  0xBA,
	"EQUAL":      0xBB,
	"COMMA":      0xBC,
	"MINUS":      0xBD,
	"DOT":        0xBE,
	"SLASH":      0xBF,
	"GRAVE":      0xC0,
	"LEFTBRACE":  0xDB,
	"BACKSLASH":  0xDC,
	"RIGHTBRACE": 0xDD,
	"APOSTROPHE": 0xDE,
}

var (
	nameToVK map[string]uint32
	vkToName map[uint32]string
)

func init() {
	nameToVK = make(map[string]uint32, len(namedKeys)+70)
	for name, vk := range namedKeys {
		nameToVK[name] = vk
	}
	for c := 'A'; c <= 'Z'; c++ {
		nameToVK[string(c)] = uint32(c)
	}
	for d := '0'; d <= '9'; d++ {
		nameToVK[string(d)] = uint32(d)
		nameToVK["KP"+string(d)] = 0x60 + uint32(d-'0')
	}
	for n := 1; n <= 24; n++ {
		nameToVK["F"+strconv.Itoa(n)] = 0x6F + uint32(n)
	}

	vkToName = make(map[uint32]string, len(nameToVK))
	for name, vk := range nameToVK {
		vkToName[vk] = "KEY_" + name
	}
}

// ParseKey resolves a hotkey name to a Windows virtual-key code. Names follow
// the Linux evdev spelling (F8, KEY_F8, KEY_ESC) so the same configuration
// works on every platform. Numeric values are taken as raw virtual-key codes.
func ParseKey(value string) (uint32, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return 0, fmt.Errorf("key is empty")
	}
	if vk, ok := nameToVK[strings.TrimPrefix(raw, "KEY_")]; ok {
		return vk, nil
	}

	parsed, err := strconv.ParseInt(raw, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown key %q: use names like F8/KEY_F8 or a virtual-key code", value)
	}
	if parsed <= 0 || parsed > 0xFE {
		return 0, fmt.Errorf("virtual-key code out of range: %d", parsed)
	}
	return uint32(parsed), nil
}

func FormatKeyName(vk uint32) string {
	if name, ok := vkToName[vk]; ok {
		return name
	}
	return fmt.Sprintf("VK_0x%02X", vk)
}
