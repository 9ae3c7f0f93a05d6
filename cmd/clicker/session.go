package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/therealpixeles/PyClicker/internal/adapters/notify"
	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

// backend is the platform input stack chosen for this process. newHotkeys
// builds a fresh listener each time global hotkeys are switched on.
type backend struct {
	name       string
	synth      autoclicker.Synthesizer
	newHotkeys func() autoclicker.HotkeyListener
	close      func()
}

// session wires one backend, one controller and the optional notifier.
type session struct {
	backend  *backend
	ctrl     *autoclicker.Controller
	notifier *notify.Notifier
	logger   *slog.Logger

	hotkeyMu      sync.Mutex
	hotkeysActive atomic.Bool
}

func openSession(cfg config, logger *slog.Logger, settings func() autoclicker.Settings, observe func(autoclicker.RunEvent)) (*session, error) {
	b, err := openBackend(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &session{backend: b, logger: logger}
	if cfg.notify {
		s.notifier, err = notify.New(notify.Config{Sound: cfg.sound}, logger)
		if err != nil {
			b.close()
			return nil, err
		}
	}

	onEvent := func(event autoclicker.RunEvent) {
		logEvent(logger, event)
		if s.notifier != nil {
			s.notifier.Observe(event)
		}
		if observe != nil {
			observe(event)
		}
	}

	s.ctrl, err = autoclicker.NewController(autoclicker.ControllerConfig{
		Synthesizer: autoclicker.WithFailsafe(b.synth),
		Logger:      logger,
		Settings:    settings,
		OnEvent:     onEvent,
	})
	if err != nil {
		s.closeSideEffects()
		return nil, err
	}

	if !cfg.noHotkeys {
		if err := s.SetHotkeysEnabled(true); err != nil {
			logger.Warn("Global hotkeys disabled", "err", err)
		}
	}
	logger.Info("Backend", "name", b.name, "hotkeys", s.HotkeysActive())
	return s, nil
}

func (s *session) HotkeysActive() bool {
	return s.hotkeysActive.Load()
}

// SetHotkeysEnabled binds a new global listener or stops the current one.
// Enabling while already active is a no-op.
func (s *session) SetHotkeysEnabled(enabled bool) error {
	s.hotkeyMu.Lock()
	defer s.hotkeyMu.Unlock()

	if !enabled {
		s.ctrl.UnbindHotkeys()
		if s.hotkeysActive.Swap(false) {
			s.logger.Info("Global hotkeys disabled")
		}
		return nil
	}
	if s.hotkeysActive.Load() {
		return nil
	}
	if s.backend.newHotkeys == nil {
		return &autoclicker.HotkeysUnavailableError{Reason: "not supported by the " + s.backend.name + " backend"}
	}

	listener := s.backend.newHotkeys()
	if !listener.Available() {
		// Start on an unavailable listener returns its reason.
		return listener.Start(func() {}, func() {})
	}
	if err := s.ctrl.BindHotkeys(listener); err != nil {
		listener.Stop()
		return err
	}
	s.hotkeysActive.Store(true)
	s.logger.Info("Global hotkeys enabled")
	return nil
}

func (s *session) closeSideEffects() {
	if s.notifier != nil {
		s.notifier.Close()
	}
	s.backend.close()
}

func (s *session) Close() {
	s.ctrl.Close()
	s.closeSideEffects()
}

// hotkeysOrUnavailable keeps the controller usable when a listener cannot be
// created.
func hotkeysOrUnavailable(listener autoclicker.HotkeyListener, err error, logger *slog.Logger) autoclicker.HotkeyListener {
	if err == nil {
		return listener
	}
	logger.Warn("Global hotkeys unavailable", "err", err)
	if isPermissionError(err) {
		logger.Warn(permissionDeniedHint())
	}
	return autoclicker.UnavailableHotkeys{Reason: err.Error()}
}

func logEvent(logger *slog.Logger, event autoclicker.RunEvent) {
	switch event.Kind {
	case autoclicker.EventTick:
		logger.Debug("Tick", "run", event.RunID, "clicks", event.Clicks)
	case autoclicker.EventError:
		logger.Error("Run error", "run", event.RunID, "err", event.Message)
	default:
		logger.Info(event.Kind.String(), "run", event.RunID, "clicks", event.Clicks, "message", event.Message)
	}
}

// describeStartError turns controller errors into a line for the user.
func describeStartError(err error) string {
	var validation *autoclicker.ValidationError
	if errors.As(err, &validation) {
		return fmt.Sprintf("Invalid %s: %s", validation.Field, validation.Reason)
	}
	return err.Error()
}
