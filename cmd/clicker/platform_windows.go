//go:build windows

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/therealpixeles/PyClicker/internal/adapters/wininput"
	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "windows":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (windows supports auto|windows)", value)
	}
}

func parseHotkeyKeys(toggleRaw, panicRaw string) (uint32, uint32, error) {
	toggleVK, err := wininput.ParseKey(toggleRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("--toggle-key: %w", err)
	}
	panicVK, err := wininput.ParseKey(panicRaw)
	if err != nil {
		return 0, 0, fmt.Errorf("--panic-key: %w", err)
	}
	if toggleVK == panicVK {
		return 0, 0, fmt.Errorf("--panic-key must be different from --toggle-key")
	}
	return toggleVK, panicVK, nil
}

func validateHotkeys(toggleRaw, panicRaw string) error {
	_, _, err := parseHotkeyKeys(toggleRaw, panicRaw)
	return err
}

func permissionDeniedHint() string {
	return "Permission denied registering global input hooks. Run as Administrator and ensure input-hooking is allowed."
}

func listInputDevices(out io.Writer, _ string) error {
	fmt.Fprintln(out, "global: Windows global keyboard hook + SendInput [physical, pointer]")
	return nil
}

func captureKeyName(config) (string, error) {
	return "", fmt.Errorf("--capture-key is not supported on Windows; use names like F8 or KEY_PAUSE")
}

func openBackend(cfg config, logger *slog.Logger) (*backend, error) {
	if cfg.devicePath != "" {
		logger.Warn("--device is ignored on Windows; using global keyboard hooks")
	}
	synth, err := wininput.NewSynthesizer()
	if err != nil {
		return nil, err
	}

	toggleVK, panicVK, err := parseHotkeyKeys(cfg.toggleRaw, cfg.panicRaw)
	if err != nil && !cfg.noHotkeys {
		_ = synth.Close()
		return nil, err
	}
	newHotkeys := func() autoclicker.HotkeyListener {
		if err != nil {
			return autoclicker.UnavailableHotkeys{Reason: err.Error()}
		}
		listener, listenErr := wininput.NewHotkeyListener(toggleVK, panicVK, logger)
		return hotkeysOrUnavailable(listener, listenErr, logger)
	}

	return &backend{
		name:       "windows",
		synth:      synth,
		newHotkeys: newHotkeys,
		close:      func() { _ = synth.Close() },
	}, nil
}
