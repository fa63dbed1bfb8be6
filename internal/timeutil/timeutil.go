package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	ClockLayout = "15:04"
	utcLayout   = "2006-01-02T15:04:05Z"
)

// ParseDay parses a YYYY-MM-DD value in UTC.
func ParseDay(value string) (time.Time, error) {
	parsed, err := time.Parse(DayLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", value, err)
	}
	return parsed, nil
}

// CombineLocal parses a YYYY-MM-DD date and HH:MM wall clock in loc.
func CombineLocal(date, clock string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	parsed, err := time.ParseInLocation(DayLayout+" "+ClockLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local datetime %q: %w", value, err)
	}
	return parsed, nil
}

// FormatUTC renders an instant as the provider's UTC wire format.
func FormatUTC(value time.Time) string {
	return value.UTC().Format(utcLayout)
}

// ParseUTC parses the provider's UTC wire format (with or without offset).
func ParseUTC(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse(utcLayout, trimmed)
	if err == nil {
		return parsed, nil
	}
	parsed, err = time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return parsed, nil
}
