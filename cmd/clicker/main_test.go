package main

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(nil, envMap(nil))
	require.NoError(t, err)
	require.Equal(t, autoclicker.Settings{
		Milliseconds:      100,
		Button:            "left",
		StartDelaySeconds: 3,
	}, cfg.settings)
	require.Equal(t, "F8", cfg.toggleRaw)
	require.Equal(t, "F9", cfg.panicRaw)
	require.True(t, cfg.ui)
	require.Equal(t, slog.LevelInfo, cfg.logLevel)
}

func TestParseConfigEnvironmentSuppliesDefaultsFlagsWin(t *testing.T) {
	env := envMap(map[string]string{
		"CLICKER_INTERVAL_MS": "20",
		"CLICKER_BUTTON":      "middle",
		"CLICKER_LIMIT":       "50",
		"CLICKER_DOUBLE":      "true",
		"CLICKER_LOG_LEVEL":   "debug",
	})
	cfg, err := parseConfig([]string{"--limit", "7", "--cli"}, env)
	require.NoError(t, err)
	require.Equal(t, 20, cfg.settings.Milliseconds)
	require.Equal(t, "middle", cfg.settings.Button)
	require.True(t, cfg.settings.DoubleClick)
	require.Equal(t, 7, cfg.settings.MaxClicks)
	require.False(t, cfg.ui)
	require.Equal(t, slog.LevelDebug, cfg.logLevel)
}

func TestParseConfigRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{name: "button", args: []string{"--button", "side"}, want: "unknown button"},
		{name: "log level", args: []string{"--log-level", "loud"}, want: "invalid --log-level"},
		{name: "env int", env: map[string]string{"CLICKER_LIMIT": "many"}, want: "CLICKER_LIMIT"},
		{name: "positional", args: []string{"extra"}, want: "unexpected arguments"},
		{name: "down ms", args: []string{"--down-ms", "-1"}, want: "--down-ms"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseConfig(tc.args, envMap(tc.env))
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tc.want), "error %q should mention %q", err, tc.want)
		})
	}
}

func TestLineSinkWriterSplitsLines(t *testing.T) {
	var lines []string
	w := &lineSinkWriter{sink: func(line string) { lines = append(lines, line) }}

	_, _ = w.Write([]byte("level=INFO msg=one\nlevel=WARN "))
	_, _ = w.Write([]byte("msg=two\n\n"))
	require.Equal(t, []string{"level=INFO msg=one", "level=WARN msg=two"}, lines)
}
