//go:build !linux && !windows

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" || backend == "auto" {
		return "auto", nil
	}
	return "", fmt.Errorf("invalid --backend %q (unsupported platform)", value)
}

func validateHotkeys(_, _ string) error {
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}

func listInputDevices(io.Writer, string) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func captureKeyName(config) (string, error) {
	return "", fmt.Errorf("key capture is not supported on this platform")
}

func openBackend(config, *slog.Logger) (*backend, error) {
	return nil, fmt.Errorf("no input backend is available on this platform")
}
