package core

import (
	"fmt"
	"time"
)

// TimestampLayout is the stored form of every transaction timestamp. It
// sorts lexicographically in chronological order, which the month window
// queries rely on.
const TimestampLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders t in the stored layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp accepts either a full timestamp or a bare date; a bare date
// is normalized to midnight.
func ParseTimestamp(s string) (string, error) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return FormatTimestamp(t), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return FormatTimestamp(t), nil
	}
	return "", fmt.Errorf("%w: %q, want YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS", ErrInvalidTimestamp, s)
}

// MonthWindow returns the half-open interval [start, end) covering the given
// calendar month, in the stored timestamp layout. December rolls into
// January of the following year. A timestamp belongs to the month iff
// start <= ts < end; the end bound is exclusive so late-evening entries on
// the last day are still included.
func MonthWindow(year, month int) (start, end string, err error) {
	if month < 1 || month > 12 {
		return "", "", ErrInvalidMonth
	}
	nextYear, nextMonth := year, month+1
	if nextMonth > 12 {
		nextYear, nextMonth = year+1, 1
	}
	start = fmt.Sprintf("%04d-%02d-01T00:00:00", year, month)
	end = fmt.Sprintf("%04d-%02d-01T00:00:00", nextYear, nextMonth)
	return start, end, nil
}
