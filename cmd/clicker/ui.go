package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const clickLabelRefresh = 100 * time.Millisecond

type clickerTheme struct {
	base fyne.Theme
}

func newClickerTheme() fyne.Theme {
	return &clickerTheme{base: theme.DarkTheme()}
}

func (t *clickerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return color.NRGBA{R: 0x0d, G: 0x10, B: 0x14, A: 0xff}
	case theme.ColorNameButton:
		return color.NRGBA{R: 0x1d, G: 0x23, B: 0x2c, A: 0xff}
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x13, G: 0x18, B: 0x1f, A: 0xff}
	case theme.ColorNameInputBorder, theme.ColorNameSeparator:
		return color.NRGBA{R: 0x2b, G: 0x33, B: 0x40, A: 0xff}
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x5a, G: 0xa9, B: 0xff, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff}
	case theme.ColorNameSuccess:
		return color.NRGBA{R: 0x7f, G: 0xd4, B: 0xa8, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *clickerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *clickerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *clickerTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding, theme.SizeNameInnerPadding:
		return 6
	}
	return t.base.Size(name)
}

// windowKeyName maps a hotkey flag value to the fyne key name used for
// in-window shortcuts.
func windowKeyName(raw string) fyne.KeyName {
	return fyne.KeyName(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(raw)), "KEY_"))
}

func runUI(cfg config) error {
	fApp := app.New()
	fApp.Settings().SetTheme(newClickerTheme())

	window := fApp.NewWindow("PyClicker")
	window.Resize(fyne.NewSize(560, 520))
	window.CenterOnScreen()

	minutesEntry := widget.NewEntry()
	secondsEntry := widget.NewEntry()
	msEntry := widget.NewEntry()
	buttonSelect := widget.NewSelect([]string{
		string(autoclicker.ButtonLeft),
		string(autoclicker.ButtonRight),
		string(autoclicker.ButtonMiddle),
	}, nil)
	doubleCheck := widget.NewCheck("Double click", nil)
	limitEntry := widget.NewEntry()
	delayEntry := widget.NewEntry()
	fixedCheck := widget.NewCheck("Click at fixed position", nil)
	xEntry := widget.NewEntry()
	yEntry := widget.NewEntry()

	initial := formFromSettings(cfg.settings)
	minutesEntry.SetText(initial.Minutes)
	secondsEntry.SetText(initial.Seconds)
	msEntry.SetText(initial.Milliseconds)
	buttonSelect.SetSelected(initial.Button)
	doubleCheck.SetChecked(initial.Double)
	limitEntry.SetText(initial.Limit)
	delayEntry.SetText(initial.Delay)
	fixedCheck.SetChecked(initial.Fixed)
	xEntry.SetText(initial.X)
	yEntry.SetText(initial.Y)
	limitEntry.SetPlaceHolder("0 = infinite")

	cpsLabel := widget.NewLabel("CPS: -")
	cpsLabel.TextStyle = fyne.TextStyle{Bold: true}
	summaryLabel := widget.NewLabel("")
	summaryLabel.Wrapping = fyne.TextWrapWord
	statusLabel := widget.NewLabel("Idle")
	statusLabel.TextStyle = fyne.TextStyle{Bold: true}
	clicksLabel := widget.NewLabel("Clicks: 0")
	errorText := canvas.NewText("", theme.Color(theme.ColorNameError))
	initProgress := widget.NewProgressBarInfinite()

	logGrid := widget.NewTextGrid()
	logScroll := container.NewVScroll(logGrid)
	logScroll.SetMinSize(fyne.NewSize(0, 120))

	const maxUILogLines = 50
	var logMu sync.Mutex
	logLines := make([]string, 0, maxUILogLines)
	debugLogs := debugLogsEnabled()
	appendLogLine := func(line string) {
		if !debugLogs {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		logMu.Lock()
		logLines = append(logLines, line)
		if len(logLines) > maxUILogLines {
			logLines = logLines[len(logLines)-maxUILogLines:]
		}
		logText := strings.Join(logLines, "\n")
		logMu.Unlock()

		fyne.Do(func() {
			logGrid.SetText(logText)
			logScroll.ScrollToBottom()
		})
	}
	logger := newSlogLogger(cfg.logLevel, appendLogLine)

	showError := func(msg string) {
		errorText.Text = msg
		errorText.Refresh()
		if msg != "" {
			appendLogLine("ERROR " + msg)
		}
	}

	// Hotkeys read settings off the fyne thread, so the form publishes its
	// last parseable values here.
	var settingsMu sync.Mutex
	currentSettings := cfg.settings
	currentSettingsFn := func() autoclicker.Settings {
		settingsMu.Lock()
		defer settingsMu.Unlock()
		return currentSettings
	}

	readForm := func() formValues {
		return formValues{
			Minutes:      minutesEntry.Text,
			Seconds:      secondsEntry.Text,
			Milliseconds: msEntry.Text,
			Button:       buttonSelect.Selected,
			Double:       doubleCheck.Checked,
			Limit:        limitEntry.Text,
			Delay:        delayEntry.Text,
			Fixed:        fixedCheck.Checked,
			X:            xEntry.Text,
			Y:            yEntry.Text,
		}
	}
	formChanged := func() {
		values := readForm()
		cps, summary := preview(values)
		cpsLabel.SetText(cps)
		summaryLabel.SetText(summary)
		if s, err := settingsFromForm(values); err == nil {
			settingsMu.Lock()
			currentSettings = s
			settingsMu.Unlock()
		}
		if fixedCheck.Checked {
			xEntry.Enable()
			yEntry.Enable()
		} else {
			xEntry.Disable()
			yEntry.Disable()
		}
	}
	for _, entry := range []*widget.Entry{minutesEntry, secondsEntry, msEntry, limitEntry, delayEntry, xEntry, yEntry} {
		entry.OnChanged = func(string) { formChanged() }
	}
	buttonSelect.OnChanged = func(string) { formChanged() }
	doubleCheck.OnChanged = func(bool) { formChanged() }
	fixedCheck.OnChanged = func(bool) { formChanged() }
	formChanged()

	startBtn := widget.NewButton("Start", nil)
	startBtn.Importance = widget.HighImportance
	stopBtn := widget.NewButton("Stop", nil)
	panicBtn := widget.NewButton("Panic", nil)
	panicBtn.Importance = widget.DangerImportance
	pickBtn := widget.NewButton("Pick", nil)
	for _, btn := range []*widget.Button{startBtn, stopBtn, panicBtn, pickBtn} {
		btn.Disable()
	}
	hotkeysCheck := widget.NewCheck(fmt.Sprintf("Enable global hotkeys (%s / %s)", cfg.toggleRaw, cfg.panicRaw), nil)
	hotkeysCheck.Disable()

	setRunningUI := func(running bool) {
		if running {
			startBtn.Disable()
			stopBtn.Enable()
			return
		}
		startBtn.Enable()
		stopBtn.Disable()
	}

	clicks := newRunClicks()
	observe := func(event autoclicker.RunEvent) {
		final, _ := clicks.observe(event)
		if event.Kind == autoclicker.EventTick {
			return
		}
		fyne.Do(func() {
			switch event.Kind {
			case autoclicker.EventStarted:
				setRunningUI(true)
			case autoclicker.EventStatus:
				statusLabel.SetText(event.Message)
				if strings.HasPrefix(event.Message, "Starting in") {
					setRunningUI(true)
				}
			case autoclicker.EventError:
				showError(event.Message)
			case autoclicker.EventStopped:
				clicksLabel.SetText(fmt.Sprintf("Clicks: %d", final))
				if statusLabel.Text == autoclicker.StatusRunning || strings.HasPrefix(statusLabel.Text, "Starting in") {
					statusLabel.SetText("Stopped.")
				}
				setRunningUI(false)
			}
		})
	}

	var stateMu sync.Mutex
	var sess *session
	getSession := func() *session {
		stateMu.Lock()
		defer stateMu.Unlock()
		return sess
	}

	startBtn.OnTapped = func() {
		s := getSession()
		if s == nil {
			return
		}
		settings, err := settingsFromForm(readForm())
		if err != nil {
			showError(describeStartError(err))
			return
		}
		settingsMu.Lock()
		currentSettings = settings
		settingsMu.Unlock()

		showError("")
		if err := s.ctrl.Start(); err != nil {
			showError(describeStartError(err))
			return
		}
		setRunningUI(true)
	}
	// Stop and Panic may wait for the worker, so they run off the UI thread.
	stopBtn.OnTapped = func() {
		if s := getSession(); s != nil {
			go s.ctrl.Stop()
		}
	}
	panicBtn.OnTapped = func() {
		if s := getSession(); s != nil {
			go s.ctrl.Panic()
		}
	}
	pickBtn.OnTapped = func() {
		s := getSession()
		if s == nil {
			return
		}
		pos, err := s.ctrl.PickCurrentPointerPosition()
		if err != nil {
			if errors.Is(err, autoclicker.ErrUnsupported) {
				showError("This backend cannot read the pointer position; enter X/Y manually.")
				return
			}
			showError(err.Error())
			return
		}
		showError("")
		xEntry.SetText(fmt.Sprintf("%d", pos.X))
		yEntry.SetText(fmt.Sprintf("%d", pos.Y))
		fixedCheck.SetChecked(true)
	}

	stopRefresh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(clickLabelRefresh)
		defer ticker.Stop()
		shown := -1
		for {
			select {
			case <-stopRefresh:
				return
			case <-ticker.C:
				n := clicks.current()
				if n == shown {
					continue
				}
				shown = n
				fyne.Do(func() {
					clicksLabel.SetText(fmt.Sprintf("Clicks: %d", n))
				})
			}
		}
	}()

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(func() {
			close(stopRefresh)
			stateMu.Lock()
			s := sess
			sess = nil
			stateMu.Unlock()
			if s != nil {
				s.Close()
			}
		})
	}

	quit := func() {
		cleanup()
		if currentApp := fyne.CurrentApp(); currentApp != nil {
			currentApp.Quit()
			return
		}
		window.SetCloseIntercept(nil)
		window.Close()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			fyne.Do(quit)
		}
	}()
	window.SetCloseIntercept(quit)

	go func() {
		appendLogLine("INFO Initializing input backend...")
		s, err := openSession(cfg, logger, currentSettingsFn, observe)
		fyne.Do(func() {
			initProgress.Hide()
			if err != nil {
				if isPermissionError(err) {
					showError(permissionDeniedHint())
				} else {
					showError(err.Error())
				}
				return
			}

			stateMu.Lock()
			sess = s
			stateMu.Unlock()

			setRunningUI(false)
			panicBtn.Enable()
			pickBtn.Enable()

			toggleKey := windowKeyName(cfg.toggleRaw)
			panicKey := windowKeyName(cfg.panicRaw)
			showIdleHint := func() {
				if !strings.HasPrefix(statusLabel.Text, "Idle") {
					return
				}
				if s.HotkeysActive() {
					statusLabel.SetText(fmt.Sprintf("Idle (%s toggle / %s panic)", cfg.toggleRaw, cfg.panicRaw))
					return
				}
				statusLabel.SetText(fmt.Sprintf("Idle (global hotkeys off; %s/%s work while this window has focus)", toggleKey, panicKey))
			}
			showIdleHint()

			hotkeysCheck.SetChecked(s.HotkeysActive())
			hotkeysCheck.OnChanged = func(on bool) {
				if on == s.HotkeysActive() {
					return
				}
				hotkeysCheck.Disable()
				go func() {
					err := s.SetHotkeysEnabled(on)
					fyne.Do(func() {
						hotkeysCheck.Enable()
						if err != nil {
							showError(err.Error())
							hotkeysCheck.SetChecked(false)
						} else {
							showError("")
						}
						showIdleHint()
					})
				}()
			}
			hotkeysCheck.Enable()

			// In-window shortcuts stand in for global hotkeys while those are
			// off, so a key never toggles twice.
			window.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
				if s.HotkeysActive() {
					return
				}
				switch ev.Name {
				case toggleKey:
					if s.ctrl.Running() {
						go s.ctrl.Stop()
					} else {
						startBtn.OnTapped()
					}
				case panicKey:
					go s.ctrl.Panic()
				}
			})
		})
	}()

	intervalRow := container.NewGridWithColumns(3, minutesEntry, secondsEntry, msEntry)
	positionRow := container.NewBorder(nil, nil, nil, pickBtn, container.NewGridWithColumns(2, xEntry, yEntry))
	form := widget.NewForm(
		widget.NewFormItem("Interval (min / s / ms)", intervalRow),
		widget.NewFormItem("Button", buttonSelect),
		widget.NewFormItem("", doubleCheck),
		widget.NewFormItem("Click limit", limitEntry),
		widget.NewFormItem("Start delay (s)", delayEntry),
		widget.NewFormItem("", fixedCheck),
		widget.NewFormItem("Position (x / y)", positionRow),
	)

	mainContent := container.NewVBox(
		widget.NewCard("Settings", "", form),
		cpsLabel,
		summaryLabel,
		container.NewGridWithColumns(3, startBtn, stopBtn, panicBtn),
		hotkeysCheck,
		statusLabel,
		clicksLabel,
		errorText,
		initProgress,
	)

	var rootContent fyne.CanvasObject = container.NewPadded(mainContent)
	if debugLogs {
		split := container.NewVSplit(rootContent, widget.NewCard("Logs", "", logScroll))
		split.SetOffset(0.75)
		rootContent = split
	}

	window.SetContent(rootContent)
	window.ShowAndRun()
	cleanup()
	return nil
}
