// Package dates holds civil-date helpers. A civil date is a time.Time at
// midnight UTC; time-of-day and zone are dropped on entry.
package dates

import (
	"strings"
	"time"

	"roster/internal/domain/shared"
)

// Layout is the storage and wire format for civil dates (YYYY-MM-DD).
const Layout = "2006-01-02"

// MonthLayout is the wire format for calendar months (YYYY-MM).
const MonthLayout = "2006-01"

// Civil drops time-of-day and zone, keeping the calendar date as seen in t's location.
func Civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the civil date of now in loc (nil loc means UTC).
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Civil(now.In(loc))
}

// Parse parses a YYYY-MM-DD string into a civil date.
// PRE: s is non-empty
// POST: Returns ErrInvalidInput for malformed values
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, shared.Invalid("dates", "Parse", "date is required")
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, shared.Invalid("dates", "Parse", "date %q must be YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseMonth parses a YYYY-MM string into the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return time.Time{}, shared.Invalid("dates", "ParseMonth", "month %q must be YYYY-MM", s)
	}
	return t, nil
}

// Format renders a civil date as YYYY-MM-DD. The zero time renders as "".
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return MonthStart(t).AddDate(0, 1, -1)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
