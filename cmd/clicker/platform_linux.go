//go:build linux

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/therealpixeles/PyClicker/internal/adapters/linuxinput"
	"github.com/therealpixeles/PyClicker/internal/adapters/x11input"
	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "wayland", "x11", "evdev":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (linux supports auto|wayland|x11)", value)
	}
}

func parseHotkeyCodes(toggleRaw, panicRaw string) (uint16, uint16, error) {
	toggleCode, err := linuxinput.ParseCode(toggleRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("--toggle-key: %w", err)
	}
	panicCode, err := linuxinput.ParseCode(panicRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("--panic-key: %w", err)
	}
	if toggleCode == panicCode {
		return 0, 0, fmt.Errorf("--panic-key must be different from --toggle-key")
	}
	return toggleCode, panicCode, nil
}

func validateHotkeys(toggleRaw, panicRaw string) error {
	_, _, err := parseHotkeyCodes(toggleRaw, panicRaw)
	return err
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend. On Wayland use root/udev for /dev/input + /dev/uinput. On X11 ensure an active X11 session and DISPLAY is set."
}

func listInputDevices(out io.Writer, _ string) error {
	devices, err := linuxinput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		virtualTag := "physical"
		if dev.IsVirtual {
			virtualTag = "virtual"
		}
		kind := "other"
		switch {
		case dev.IsKeyboard:
			kind = "keyboard"
		case dev.IsPointer:
			kind = "pointer"
		}
		fmt.Fprintf(out, "%s: %s [%s, %s]\n", dev.Path, dev.Name, virtualTag, kind)
	}
	return nil
}

func captureKeyName(cfg config) (string, error) {
	code, err := linuxinput.CaptureNextKeyCode(cfg.devicePath, 10*time.Second)
	if err != nil {
		return "", err
	}
	return linuxinput.FormatCodeName(code), nil
}

func openBackend(cfg config, logger *slog.Logger) (*backend, error) {
	choice := resolveLinuxBackend(cfg.backend)
	if choice == "x11" {
		b, err := openX11Backend(cfg, logger)
		if err == nil || strings.ToLower(strings.TrimSpace(cfg.backend)) != "auto" {
			return b, err
		}
		logger.Warn("X11 backend unavailable, falling back to uinput", "err", err)
	}
	return openUinputBackend(cfg, logger)
}

func openX11Backend(cfg config, logger *slog.Logger) (*backend, error) {
	if cfg.devicePath != "" {
		logger.Warn("--device is ignored on X11 backend")
	}
	synth, err := x11input.NewSynthesizer()
	if err != nil {
		return nil, err
	}

	toggleCode, panicCode, err := parseHotkeyCodes(cfg.toggleRaw, cfg.panicRaw)
	if err != nil && !cfg.noHotkeys {
		_ = synth.Close()
		return nil, err
	}
	newHotkeys := func() autoclicker.HotkeyListener {
		if err != nil {
			return autoclicker.UnavailableHotkeys{Reason: err.Error()}
		}
		listener, listenErr := x11input.NewHotkeyListener(toggleCode, panicCode, logger)
		return hotkeysOrUnavailable(listener, listenErr, logger)
	}

	return &backend{
		name:       "x11",
		synth:      synth,
		newHotkeys: newHotkeys,
		close:      func() { _ = synth.Close() },
	}, nil
}

func openUinputBackend(cfg config, logger *slog.Logger) (*backend, error) {
	synth, err := linuxinput.NewSynthesizer(linuxinput.SynthesizerConfig{
		ClickDown: time.Duration(cfg.downMS * float64(time.Millisecond)),
	})
	if err != nil {
		return nil, err
	}
	if cfg.settings.FixedPosition {
		logger.Warn("Fixed position is not supported on the uinput backend; runs with it enabled will fail")
	}
	logger.Info("Failsafe corner is not observable on the uinput backend; use the panic key")

	toggleCode, panicCode, err := parseHotkeyCodes(cfg.toggleRaw, cfg.panicRaw)
	if err != nil && !cfg.noHotkeys {
		_ = synth.Close()
		return nil, err
	}
	newHotkeys := func() autoclicker.HotkeyListener {
		if err != nil {
			return autoclicker.UnavailableHotkeys{Reason: err.Error()}
		}
		listener, listenErr := linuxinput.NewHotkeyListener(linuxinput.HotkeyConfig{
			ToggleCode: toggleCode,
			PanicCode:  panicCode,
			DevicePath: cfg.devicePath,
		}, logger)
		return hotkeysOrUnavailable(listener, listenErr, logger)
	}

	return &backend{
		name:       "wayland",
		synth:      synth,
		newHotkeys: newHotkeys,
		close:      func() { _ = synth.Close() },
	}, nil
}

func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = "auto"
	}
	if choice == "evdev" {
		choice = "wayland"
	}
	if choice != "auto" {
		return choice
	}

	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland":
		return "wayland"
	case "x11":
		return "x11"
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "wayland"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "wayland"
}
