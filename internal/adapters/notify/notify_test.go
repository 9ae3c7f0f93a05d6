package notify

import (
	"errors"
	"sync"
	"testing"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"github.com/stretchr/testify/require"
)

type sent struct {
	title   string
	message string
}

type recordingSender struct {
	mu        sync.Mutex
	notices   []sent
	beeps     int
	notifyErr error
}

func (r *recordingSender) Notify(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, sent{title: title, message: message})
	return r.notifyErr
}

func (r *recordingSender) Beep() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beeps++
	return nil
}

func (r *recordingSender) snapshot() ([]sent, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sent, len(r.notices))
	copy(out, r.notices)
	return out, r.beeps
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func TestNotifierReportsTerminalOutcomes(t *testing.T) {
	sender := &recordingSender{}
	n, err := New(Config{AppName: "Clicker", Sound: true, Sender: sender}, noopLogger{})
	require.NoError(t, err)

	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStarted, RunID: 1})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventTick, RunID: 1, Clicks: 3})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStatus, RunID: 1, Message: autoclicker.StatusRunning})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStatus, RunID: 1, Message: autoclicker.StatusLimitReached})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStatus, RunID: 2, Message: autoclicker.StatusFailsafe})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventError, RunID: 3, Message: "click failed: boom"})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStopped, RunID: 3})
	n.Close()

	notices, beeps := sender.snapshot()
	require.Equal(t, []sent{
		{title: "Clicker: done", message: autoclicker.StatusLimitReached},
		{title: "Clicker: failsafe", message: autoclicker.StatusFailsafe},
		{title: "Clicker: error", message: "click failed: boom"},
	}, notices)
	require.Equal(t, 3, beeps)
}

func TestNotifierSurvivesSenderErrors(t *testing.T) {
	sender := &recordingSender{notifyErr: errors.New("no notification daemon")}
	n, err := New(Config{Sender: sender}, noopLogger{})
	require.NoError(t, err)

	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStatus, Message: autoclicker.StatusPanic})
	n.Observe(autoclicker.RunEvent{Kind: autoclicker.EventStatus, Message: autoclicker.StatusPanic})
	n.Close()
	n.Close()

	notices, beeps := sender.snapshot()
	require.Len(t, notices, 2)
	require.Equal(t, "PyClicker: stopped", notices[0].title)
	require.Zero(t, beeps)
}

func TestNewRejectsNilLogger(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
}
