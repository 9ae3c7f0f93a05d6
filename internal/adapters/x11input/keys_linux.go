//go:build linux

package x11input

import (
	"strings"

	"github.com/therealpixeles/PyClicker/internal/adapters/linuxinput"
)

// Keysym names for evdev keys whose X11 name is not the evdev token itself.
var keysymByToken = map[string]string{
	"ESC":        "Escape",
	"ENTER":      "Return",
	"TAB":        "Tab",
	"SPACE":      "space",
	"BACKSPACE":  "BackSpace",
	"CAPSLOCK":   "Caps_Lock",
	"NUMLOCK":    "Num_Lock",
	"SCROLLLOCK": "Scroll_Lock",
	"PAGEUP":     "Page_Up",
	"PAGEDOWN":   "Page_Down",
	"INSERT":     "Insert",
	"DELETE":     "Delete",
	"HOME":       "Home",
	"END":        "End",
	"UP":         "Up",
	"DOWN":       "Down",
	"LEFT":       "Left",
	"RIGHT":      "Right",
	"MENU":       "Menu",
	"PAUSE":      "Pause",
	"SYSRQ":      "Print",
	"MINUS":      "minus",
	"EQUAL":      "equal",
	"LEFTBRACE":  "bracketleft",
	"RIGHTBRACE": "bracketright",
	"SEMICOLON":  "semicolon",
	"APOSTROPHE": "apostrophe",
	"GRAVE":      "grave",
	"BACKSLASH":  "backslash",
	"COMMA":      "comma",
	"DOT":        "period",
	"SLASH":      "slash",
	"KPPLUS":     "KP_Add",
	"KPMINUS":    "KP_Subtract",
	"KPASTERISK": "KP_Multiply",
	"KPSLASH":    "KP_Divide",
	"KPDOT":      "KP_Decimal",
	"KPENTER":    "KP_Enter",
}

// keysymForCode maps an evdev key code to the keysym string understood by
// keybind.StrToKeycodes. Modifier keys are rejected since grabbing them
// globally would break normal typing.
func keysymForCode(code uint16) (string, bool) {
	name := linuxinput.FormatCodeName(code)
	if !strings.HasPrefix(name, "KEY_") {
		return "", false
	}
	token := strings.TrimPrefix(name, "KEY_")

	if keysym, ok := keysymByToken[token]; ok {
		return keysym, true
	}
	switch {
	case len(token) == 1 && token[0] >= 'A' && token[0] <= 'Z':
		return strings.ToLower(token), true
	case len(token) == 1 && token[0] >= '0' && token[0] <= '9':
		return token, true
	case len(token) > 1 && token[0] == 'F' && isDigits(token[1:]):
		return token, true
	case len(token) == 3 && strings.HasPrefix(token, "KP") && isDigits(token[2:]):
		return "KP_" + token[2:], true
	}
	return "", false
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func clampToInt16(value int) int16 {
	if value < -32768 {
		return -32768
	}
	if value > 32767 {
		return 32767
	}
	return int16(value)
}
