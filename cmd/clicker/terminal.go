package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

// runTerminal starts one run right away and streams status lines. It exits
// on SIGINT/SIGTERM, or when the run ends and no hotkey could restart it.
func runTerminal(cfg config, stdout, stderr io.Writer) int {
	clickCfg, err := autoclicker.NewClickConfig(cfg.settings)
	if err != nil {
		fmt.Fprintln(stderr, describeStartError(err))
		return 2
	}

	logger := newSlogLogger(cfg.logLevel, nil)
	stopped := make(chan struct{}, 1)
	var lastClicks int

	observe := func(event autoclicker.RunEvent) {
		switch event.Kind {
		case autoclicker.EventStatus:
			fmt.Fprintln(stdout, event.Message)
		case autoclicker.EventError:
			fmt.Fprintln(stderr, "error:", event.Message)
		case autoclicker.EventTick:
			lastClicks = event.Clicks
		case autoclicker.EventStopped:
			fmt.Fprintf(stdout, "Stopped after %d clicks.\n", lastClicks)
			lastClicks = 0
			select {
			case stopped <- struct{}{}:
			default:
			}
		}
	}

	sess, err := openSession(cfg, logger, func() autoclicker.Settings { return cfg.settings }, observe)
	if err != nil {
		reportStartupError(stderr, err)
		return 1
	}
	defer sess.Close()

	fmt.Fprintln(stdout, clickCfg.Summary())
	if sess.HotkeysActive() {
		fmt.Fprintf(stdout, "Hotkeys: %s toggle, %s panic. Ctrl+C quits.\n", cfg.toggleRaw, cfg.panicRaw)
	}
	if err := sess.ctrl.StartWith(clickCfg); err != nil {
		fmt.Fprintln(stderr, describeStartError(err))
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return 0
		case <-stopped:
			if !sess.HotkeysActive() {
				return 0
			}
		}
	}
}
