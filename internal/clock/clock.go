// Package clock reads the local airport times the flight provider sends
// ("2025-06-01 08:30") and turns them into display strings.
package clock

import (
	"strings"
	"time"
)

var layouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Parse reads a provider local time. The result carries no zone; airport
// times are wall-clock values at that airport.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   s,
		Message: "unable to parse local time string",
	}
}

// HourMinute returns "15:04" for a provider time. Bare "HH:MM" values pass
// through and anything unreadable comes back unchanged.
func HourMinute(s string) string {
	if t, err := Parse(s); err == nil {
		return t.Format("15:04")
	}
	if _, err := time.Parse("15:04", strings.TrimSpace(s)); err == nil {
		return strings.TrimSpace(s)
	}
	return s
}

// DayOffset counts calendar days between two provider times, e.g. 1 for an
// arrival the morning after departure. Unparseable input yields 0.
func DayOffset(departure, arrival string) int {
	dep, err := Parse(departure)
	if err != nil {
		return 0
	}
	arr, err := Parse(arrival)
	if err != nil {
		return 0
	}
	depDay := time.Date(dep.Year(), dep.Month(), dep.Day(), 0, 0, 0, 0, time.UTC)
	arrDay := time.Date(arr.Year(), arr.Month(), arr.Day(), 0, 0, 0, 0, time.UTC)
	return int(arrDay.Sub(depDay).Hours() / 24)
}
