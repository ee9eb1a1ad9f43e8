package core

import (
	"errors"
	"testing"
	"time"
)

func TestFormatTimestampSorts(t *testing.T) {
	earlier := FormatTimestamp(time.Date(2025, 1, 31, 23, 59, 59, 0, time.UTC))
	later := FormatTimestamp(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-01-31T23:59:59", "2025-01-31T23:59:59", true},
		{"2025-01-31", "2025-01-31T00:00:00", true},
		{"31/01/2025", "", false},
		{"2025-13-01", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q: expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidTimestamp) {
			t.Fatalf("%q: expected ErrInvalidTimestamp, got %v", tc.in, err)
		}
	}
}

func TestMonthWindow(t *testing.T) {
	start, end, err := MonthWindow(2025, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2025-01-01T00:00:00" || end != "2025-02-01T00:00:00" {
		t.Fatalf("got window [%s, %s)", start, end)
	}

	// Last-second entry is inside, first instant of the next month is not.
	inside := "2025-01-31T23:59:59"
	outside := "2025-02-01T00:00:00"
	if !(inside >= start && inside < end) {
		t.Fatalf("%s should fall inside [%s, %s)", inside, start, end)
	}
	if outside < end {
		t.Fatalf("%s should fall outside [%s, %s)", outside, start, end)
	}
}

func TestMonthWindowDecemberRollsOver(t *testing.T) {
	start, end, err := MonthWindow(2025, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != "2025-12-01T00:00:00" || end != "2026-01-01T00:00:00" {
		t.Fatalf("got window [%s, %s)", start, end)
	}
	if newYear := "2026-01-01T00:00:00"; newYear < end {
		t.Fatalf("%s should be excluded from December", newYear)
	}
}

func TestMonthWindowRejectsBadMonth(t *testing.T) {
	for _, m := range []int{0, 13, -1} {
		if _, _, err := MonthWindow(2025, m); err != ErrInvalidMonth {
			t.Fatalf("month %d: expected ErrInvalidMonth, got %v", m, err)
		}
	}
}
