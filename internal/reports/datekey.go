package reports

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	dateKeyLayout      = "2006-01-02"
	dateLabelLayout    = "Mon, Jan 2, 2006"
	isoTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrInvalidDateKey indicates that a date key is not a YYYY-MM-DD calendar day.
var ErrInvalidDateKey = errors.New("reports: invalid date key")

// DateKey identifies a local calendar day as YYYY-MM-DD.
type DateKey string

// GetDateKey projects t onto its calendar day in t's own location.
// Two instants on the same local day always share a key.
func GetDateKey(t time.Time) DateKey {
	year, month, day := t.Date()
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
}

// ParseDateKey validates raw input and returns a DateKey.
func ParseDateKey(rawInput string) (DateKey, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDateKey)
	}
	parsed, err := time.Parse(dateKeyLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateKey, trimmed)
	}
	return GetDateKey(parsed), nil
}

// String returns the underlying key.
func (key DateKey) String() string {
	return string(key)
}

// Time returns local midnight of the day in loc. An invalid key yields the zero time.
func (key DateKey) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation(dateKeyLayout, string(key), loc)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Before reports whether key is an earlier calendar day than other.
// Zero-padded keys order lexically.
func (key DateKey) Before(other DateKey) bool {
	return key < other
}

// FormatDateLabel renders a day the way report headers show it: "Wed, Feb 12, 2026".
func FormatDateLabel(t time.Time) string {
	return t.Format(dateLabelLayout)
}

// FormatTimestamp renders an ISO 8601 timestamp with millisecond precision in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(isoTimestampLayout)
}
