// Package age converts birth dates into ages in completed years and back into
// birth-date windows for member lookups.
package age

import (
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/shared"
)

// InYears returns the number of completed years between birth and asOf.
// A Feb-29 birth date completes its year on Mar-1 in non-leap years.
// PRE: birth and asOf are set, asOf is not before birth
// POST: Returns ErrInvalidInput otherwise; never fails for valid dates
func InYears(birth, asOf time.Time) (int, error) {
	if birth.IsZero() {
		return 0, shared.Invalid("age", "InYears", "birth date is required")
	}
	if asOf.IsZero() {
		return 0, shared.Invalid("age", "InYears", "reference date is required")
	}
	b, r := dates.Civil(birth), dates.Civil(asOf)
	if r.Before(b) {
		return 0, shared.Invalid("age", "InYears", "reference date %s is before birth date %s", dates.Format(r), dates.Format(b))
	}

	years := r.Year() - b.Year()
	if r.Month() < b.Month() || (r.Month() == b.Month() && r.Day() < b.Day()) {
		years--
	}
	return years, nil
}

// BirthWindow returns the inclusive birth-date bounds of everyone whose age
// on asOf lies within iv.
// PRE: iv.Min <= iv.Max
// POST: from <= to; a birth date b has InYears(b, asOf) in iv iff from <= b <= to
func BirthWindow(iv cohort.Interval, asOf time.Time) (from, to time.Time) {
	r := dates.Civil(asOf)
	to = yearsBefore(r, iv.Min)
	from = yearsBefore(r, iv.Max+1).AddDate(0, 0, 1)
	return from, to
}

// NextBirthday returns the first birthday on or after asOf. Feb-29 birthdays
// fall on Mar-1 in non-leap years.
func NextBirthday(birth, asOf time.Time) time.Time {
	r := dates.Civil(asOf)
	next := anniversary(birth, r.Year())
	if next.Before(r) {
		next = anniversary(birth, r.Year()+1)
	}
	return next
}

// yearsBefore is r shifted back n years; Feb-29 clamps to Feb-28 so that a
// person born on the result has exactly n completed years on r.
func yearsBefore(r time.Time, n int) time.Time {
	y := r.Year() - n
	if r.Month() == time.February && r.Day() == 29 && !isLeap(y) {
		return time.Date(y, time.February, 28, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, r.Month(), r.Day(), 0, 0, 0, 0, time.UTC)
}

func anniversary(birth time.Time, year int) time.Time {
	if birth.Month() == time.February && birth.Day() == 29 && !isLeap(year) {
		return time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
