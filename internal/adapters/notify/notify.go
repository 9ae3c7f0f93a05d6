// Package notify turns run events that end a run abnormally into desktop
// notifications.
package notify

import (
	"fmt"
	"sync"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"github.com/gen2brain/beeep"
)

const queueSize = 8

// Sender delivers one notification.
type Sender interface {
	Notify(title, message string) error
	Beep() error
}

type beeepSender struct{}

func (beeepSender) Notify(title, message string) error {
	return beeep.Notify(title, message, "")
}

func (beeepSender) Beep() error {
	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration/2)
}

type Config struct {
	AppName string
	// Sound adds a short beep to every notification.
	Sound bool
	// Sender overrides the system notifier.
	Sender Sender
}

type notice struct {
	title   string
	message string
}

// Notifier observes RunEvents and reports failsafe, limit, panic and error
// outcomes. Delivery runs on its own goroutine so a slow notification daemon
// never holds up event delivery; notices beyond the queue are dropped.
type Notifier struct {
	sender  Sender
	logger  autoclicker.Logger
	appName string
	sound   bool

	queue     chan notice
	done      chan struct{}
	closeOnce sync.Once
}

func New(cfg Config, logger autoclicker.Logger) (*Notifier, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	sender := cfg.Sender
	if sender == nil {
		sender = beeepSender{}
	}
	appName := cfg.AppName
	if appName == "" {
		appName = "PyClicker"
	}

	n := &Notifier{
		sender:  sender,
		logger:  logger,
		appName: appName,
		sound:   cfg.Sound,
		queue:   make(chan notice, queueSize),
		done:    make(chan struct{}),
	}
	go n.loop()
	return n, nil
}

// Observe is meant to be chained into the controller's event callback.
func (n *Notifier) Observe(event autoclicker.RunEvent) {
	note, ok := n.noticeFor(event)
	if !ok {
		return
	}
	select {
	case n.queue <- note:
	default:
		n.logger.Debug("Dropping notification", "title", note.title)
	}
}

func (n *Notifier) noticeFor(event autoclicker.RunEvent) (notice, bool) {
	switch event.Kind {
	case autoclicker.EventStatus:
		switch event.Message {
		case autoclicker.StatusFailsafe:
			return notice{title: n.appName + ": failsafe", message: event.Message}, true
		case autoclicker.StatusLimitReached:
			return notice{title: n.appName + ": done", message: event.Message}, true
		case autoclicker.StatusPanic:
			return notice{title: n.appName + ": stopped", message: event.Message}, true
		}
	case autoclicker.EventError:
		return notice{title: n.appName + ": error", message: event.Message}, true
	}
	return notice{}, false
}

func (n *Notifier) loop() {
	defer close(n.done)
	for note := range n.queue {
		if err := n.sender.Notify(note.title, note.message); err != nil {
			n.logger.Warn("Desktop notification failed", "err", err)
		}
		if n.sound {
			if err := n.sender.Beep(); err != nil {
				n.logger.Debug("Beep failed", "err", err)
			}
		}
	}
}

// Close flushes queued notices and stops the delivery goroutine. Observe
// must not be called afterwards.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		close(n.queue)
		<-n.done
	})
}
