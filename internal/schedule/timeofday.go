// Package schedule expands recurring client schedules into expected
// occurrences and reconciles them with stored attendance records.
package schedule

import "time"

// DefaultSessionTime applies when a schedule has no time for an expected weekday.
const DefaultSessionTime = "09:00"

const (
	shortTimeLayout = "15:04"
	longTimeLayout  = "15:04:05"
)

// NormalizeTime returns the HH:MM:SS form of an HH:MM time. Any other input,
// including malformed values, is returned unchanged.
func NormalizeTime(raw string) string {
	if len(raw) == len(shortTimeLayout) {
		return raw + ":00"
	}
	return raw
}

// ValidTimeOfDay reports whether raw is a 24h HH:MM or HH:MM:SS time.
func ValidTimeOfDay(raw string) bool {
	var layout string
	switch len(raw) {
	case len(shortTimeLayout):
		layout = shortTimeLayout
	case len(longTimeLayout):
		layout = longTimeLayout
	default:
		return false
	}
	_, err := time.Parse(layout, raw)
	return err == nil
}
