package autoclicker

// HotkeyListener observes OS-wide keys independent of window focus and
// reports the two logical signals. Callbacks may be invoked from an OS
// hook thread and must return quickly.
type HotkeyListener interface {
	Available() bool
	Start(onToggle, onPanic func()) error
	Stop()
}

// UnavailableHotkeys is the listener used when the platform has no global
// hotkey facility. The controller stays fully usable without it.
type UnavailableHotkeys struct {
	Reason string
}

func (UnavailableHotkeys) Available() bool { return false }

func (u UnavailableHotkeys) Start(func(), func()) error {
	return &HotkeysUnavailableError{Reason: u.Reason}
}

func (UnavailableHotkeys) Stop() {}

type HotkeysUnavailableError struct {
	Reason string
}

func (e *HotkeysUnavailableError) Error() string {
	if e.Reason == "" {
		return "global hotkeys unavailable"
	}
	return "global hotkeys unavailable: " + e.Reason
}
