package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"github.com/joho/godotenv"
)

const envPrefix = "CLICKER_"

type config struct {
	settings    autoclicker.Settings
	backend     string
	devicePath  string
	toggleRaw   string
	panicRaw    string
	downMS      float64
	noHotkeys   bool
	notify      bool
	sound       bool
	listDevices bool
	captureKey  bool
	ui          bool
	logLevel    slog.Level
}

type lineSinkWriter struct {
	sink  func(line string)
	mu    sync.Mutex
	lines bytes.Buffer
}

func (w *lineSinkWriter) Write(p []byte) (int, error) {
	if w.sink == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			_, _ = w.lines.Write(p)
			break
		}
		_, _ = w.lines.Write(p[:idx])
		line := strings.TrimSpace(w.lines.String())
		w.lines.Reset()
		if line != "" {
			w.sink(line)
		}
		p = p[idx+1:]
	}
	return total, nil
}

func newSlogLogger(level slog.Level, sink func(line string)) *slog.Logger {
	if !debugLogsEnabled() {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: level,
		}))
	}

	out := io.Writer(os.Stderr)
	if sink != nil {
		out = io.MultiWriter(os.Stderr, &lineSinkWriter{sink: sink})
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

// envDefaults reads flag defaults from CLICKER_* variables. The first
// malformed value is kept in err and reported once flags are parsed.
type envDefaults struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envDefaults) raw(name string) (string, bool) {
	value, ok := e.lookup(envPrefix + name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func (e *envDefaults) fail(name, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s%s=%q: %w", envPrefix, name, value, err)
	}
}

func (e *envDefaults) String(name, fallback string) string {
	if value, ok := e.raw(name); ok {
		return value
	}
	return fallback
}

func (e *envDefaults) Int(name string, fallback int) int {
	value, ok := e.raw(name)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		e.fail(name, value, err)
		return fallback
	}
	return parsed
}

func (e *envDefaults) Float(name string, fallback float64) float64 {
	value, ok := e.raw(name)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.fail(name, value, err)
		return fallback
	}
	return parsed
}

func (e *envDefaults) Bool(name string, fallback bool) bool {
	value, ok := e.raw(name)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(name, value, err)
		return fallback
	}
	return parsed
}

func parseConfig(args []string, lookupEnv func(string) (string, bool)) (config, error) {
	var cfg config
	env := &envDefaults{lookup: lookupEnv}
	flags := flag.NewFlagSet("clicker", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)

	var backendRaw string
	var buttonRaw string
	var logLevelRaw string
	var cliMode bool

	s := &cfg.settings
	flags.IntVar(&s.Minutes, "interval-min", env.Int("INTERVAL_MIN", 0), "Interval minutes component.")
	flags.IntVar(&s.Seconds, "interval-s", env.Int("INTERVAL_S", 0), "Interval seconds component.")
	flags.IntVar(&s.Milliseconds, "interval-ms", env.Int("INTERVAL_MS", 100), "Interval milliseconds component (total interval must be at least 1ms).")
	flags.StringVar(&buttonRaw, "button", env.String("BUTTON", string(autoclicker.ButtonLeft)), "Mouse button to click: left|right|middle.")
	flags.BoolVar(&s.DoubleClick, "double", env.Bool("DOUBLE", false), "Double click on every tick (counts as 2 clicks).")
	flags.IntVar(&s.MaxClicks, "limit", env.Int("LIMIT", 0), "Stop after this many clicks (0 = infinite).")
	flags.IntVar(&s.StartDelaySeconds, "delay", env.Int("DELAY", 3), "Countdown in seconds before the first click.")
	flags.BoolVar(&s.FixedPosition, "fixed", env.Bool("FIXED", false), "Move to --x/--y before every click.")
	flags.IntVar(&s.X, "x", env.Int("X", 0), "Fixed target X coordinate.")
	flags.IntVar(&s.Y, "y", env.Int("Y", 0), "Fixed target Y coordinate.")
	flags.StringVar(&backendRaw, "backend", env.String("BACKEND", "auto"), "Input backend. Linux: auto|wayland|x11. Windows: auto|windows.")
	flags.StringVar(&cfg.devicePath, "device", env.String("DEVICE", ""), "Keyboard event device for evdev hotkeys, e.g. /dev/input/event4. Auto-detected if omitted.")
	flags.StringVar(&cfg.toggleRaw, "toggle-key", env.String("TOGGLE_KEY", "F8"), "Global start/stop hotkey.")
	flags.StringVar(&cfg.panicRaw, "panic-key", env.String("PANIC_KEY", "F9"), "Global panic-stop hotkey.")
	flags.Float64Var(&cfg.downMS, "down-ms", env.Float("DOWN_MS", 0), "How long each synthetic press is held in ms (uinput backend only).")
	flags.BoolVar(&cfg.noHotkeys, "no-hotkeys", env.Bool("NO_HOTKEYS", false), "Do not register global hotkeys.")
	flags.BoolVar(&cfg.notify, "notify", env.Bool("NOTIFY", false), "Show a desktop notification when a run ends by failsafe, limit, panic or error.")
	flags.BoolVar(&cfg.sound, "sound", env.Bool("SOUND", false), "Beep with every notification (requires --notify).")
	flags.BoolVar(&cfg.listDevices, "list-devices", false, "Print available input devices and exit.")
	flags.BoolVar(&cfg.captureKey, "capture-key", false, "Wait for a key press, print its name for --toggle-key/--panic-key and exit.")
	flags.BoolVar(&cfg.ui, "ui", env.Bool("UI", true), "Start desktop GUI (Fyne) by default. Use --ui=false or --cli for terminal mode.")
	flags.BoolVar(&cliMode, "cli", false, "Force terminal mode: start clicking immediately (disables GUI).")
	flags.StringVar(&logLevelRaw, "log-level", env.String("LOG_LEVEL", "info"), "Log verbosity (default: info). Allowed: debug, info, warning, error.")

	if err := flags.Parse(args); err != nil {
		return cfg, err
	}
	if env.err != nil {
		return cfg, env.err
	}
	if flags.NArg() > 0 {
		return cfg, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if cfg.downMS < 0 {
		return cfg, fmt.Errorf("--down-ms must be >= 0")
	}
	if cliMode {
		cfg.ui = false
	}

	button, err := autoclicker.ParseButton(buttonRaw)
	if err != nil {
		return cfg, err
	}
	s.Button = string(button)

	parsedLevel, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return cfg, err
	}
	backendChoice, err := parseBackendChoice(backendRaw)
	if err != nil {
		return cfg, err
	}
	if !cfg.noHotkeys {
		if err := validateHotkeys(cfg.toggleRaw, cfg.panicRaw); err != nil {
			return cfg, err
		}
	}

	cfg.backend = backendChoice
	cfg.logLevel = parsedLevel
	return cfg, nil
}

// loadDotEnv fills unset environment variables from ./.env. A missing file
// is not an error.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := loadDotEnv(); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := parseConfig(args, os.LookupEnv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.listDevices {
		if err := listInputDevices(stdout, cfg.backend); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	if cfg.captureKey {
		fmt.Fprintln(stderr, "Press the key to use...")
		name, err := captureKeyName(cfg)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, name)
		return 0
	}

	if cfg.ui {
		if err := runUI(cfg); err != nil {
			reportStartupError(stderr, err)
			return 1
		}
		return 0
	}

	return runTerminal(cfg, stdout, stderr)
}

func reportStartupError(stderr io.Writer, err error) {
	if isPermissionError(err) {
		fmt.Fprintln(stderr, permissionDeniedHint())
		return
	}
	fmt.Fprintln(stderr, err)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
