package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/therealpixeles/PyClicker/internal/core/autoclicker"
)

// formValues is the raw text of the settings form.
type formValues struct {
	Minutes      string
	Seconds      string
	Milliseconds string
	Button       string
	Double       bool
	Limit        string
	Delay        string
	Fixed        bool
	X            string
	Y            string
}

func formFromSettings(s autoclicker.Settings) formValues {
	return formValues{
		Minutes:      strconv.Itoa(s.Minutes),
		Seconds:      strconv.Itoa(s.Seconds),
		Milliseconds: strconv.Itoa(s.Milliseconds),
		Button:       s.Button,
		Double:       s.DoubleClick,
		Limit:        strconv.Itoa(s.MaxClicks),
		Delay:        strconv.Itoa(s.StartDelaySeconds),
		Fixed:        s.FixedPosition,
		X:            strconv.Itoa(s.X),
		Y:            strconv.Itoa(s.Y),
	}
}

// settingsFromForm parses whole-number fields; blank counts as 0. Range
// checks are left to autoclicker.NewClickConfig.
func settingsFromForm(v formValues) (autoclicker.Settings, error) {
	var s autoclicker.Settings
	fields := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"minutes", v.Minutes, &s.Minutes},
		{"seconds", v.Seconds, &s.Seconds},
		{"milliseconds", v.Milliseconds, &s.Milliseconds},
		{"click limit", v.Limit, &s.MaxClicks},
		{"start delay", v.Delay, &s.StartDelaySeconds},
		{"x", v.X, &s.X},
		{"y", v.Y, &s.Y},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(f.raw)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return autoclicker.Settings{}, &autoclicker.ValidationError{Field: f.name, Reason: "must be a whole number"}
		}
		*f.dst = n
	}
	s.Button = strings.ToLower(strings.TrimSpace(v.Button))
	s.DoubleClick = v.Double
	s.FixedPosition = v.Fixed
	return s, nil
}

// preview renders the CPS and summary labels for the current form.
func preview(v formValues) (cps string, summary string) {
	s, err := settingsFromForm(v)
	if err != nil {
		return "CPS: -", describeStartError(err)
	}
	cfg, err := autoclicker.NewClickConfig(s)
	if err != nil {
		return "CPS: -", describeStartError(err)
	}
	return fmt.Sprintf("CPS: %.1f", cfg.CPS()), cfg.Summary()
}
