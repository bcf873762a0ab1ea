// Package stats derives per-cohort attendance statistics from ledger records.
// Every function is pure; callers pass records already scoped to one cohort.
package stats

import (
	"math"
	"sort"
	"time"

	"roster/internal/domain/attendance"
	"roster/internal/domain/dates"
)

// DayCount is the tally for one date that has at least one explicit record.
type DayCount struct {
	Date     time.Time
	Present  int // records with Present true
	Recorded int // records of any value
}

// Peak is a maximum present count and the earliest date achieving it.
// The zero Peak means no dates were recorded.
type Peak struct {
	Count int
	Date  time.Time
}

// Snapshot is the state of a cohort on a single day.
type Snapshot struct {
	Total      int
	Present    int
	Absent     int
	Percentage int
}

// Summary is the full statistics view of a cohort for one month.
type Summary struct {
	Today              Snapshot
	Month              time.Time // first day of the summarized month
	MonthlyAverage     int
	MonthlyMaximum     Peak
	HistoricalMaximum  Peak
	DaysWithAttendance int
}

// DailyCounts tallies records per date.
// POST: one entry per distinct date, ascending by date
func DailyCounts(records []attendance.Record) []DayCount {
	byDate := make(map[time.Time]*DayCount)
	for _, r := range records {
		d := dates.Civil(r.Date)
		dc, ok := byDate[d]
		if !ok {
			dc = &DayCount{Date: d}
			byDate[d] = dc
		}
		dc.Recorded++
		if r.Present {
			dc.Present++
		}
	}
	out := make([]DayCount, 0, len(byDate))
	for _, dc := range byDate {
		out = append(out, *dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// inMonth returns the counts whose date falls in month.
func inMonth(counts []DayCount, month time.Time) []DayCount {
	var out []DayCount
	for _, c := range counts {
		if dates.SameMonth(c.Date, month) {
			out = append(out, c)
		}
	}
	return out
}

// MonthlyAverage returns the rounded mean present count over the dates in
// month that have at least one record. Dates without records are not in the
// denominator.
// POST: Returns 0 when the month has no recorded dates
func MonthlyAverage(counts []DayCount, month time.Time) int {
	days := inMonth(counts, month)
	if len(days) == 0 {
		return 0
	}
	sum := 0
	for _, d := range days {
		sum += d.Present
	}
	return roundRatio(sum, len(days))
}

// Maximum returns the highest present count over counts.
// INVARIANT: ties resolve to the earliest date
func Maximum(counts []DayCount) Peak {
	var p Peak
	for _, c := range counts {
		switch {
		case p.Date.IsZero():
			p = Peak{Count: c.Present, Date: c.Date}
		case c.Present > p.Count:
			p = Peak{Count: c.Present, Date: c.Date}
		case c.Present == p.Count && c.Date.Before(p.Date):
			p.Date = c.Date
		}
	}
	return p
}

// MonthlyMaximum is Maximum restricted to month.
func MonthlyMaximum(counts []DayCount, month time.Time) Peak {
	return Maximum(inMonth(counts, month))
}

// PresentOn returns the present count recorded for day.
func PresentOn(counts []DayCount, day time.Time) int {
	day = dates.Civil(day)
	for _, c := range counts {
		if c.Date.Equal(day) {
			return c.Present
		}
	}
	return 0
}

// TodaySnapshot builds the snapshot for a cohort of total members with
// present of them marked present.
// POST: Present + Absent == Total, 0 <= Percentage <= 100
func TodaySnapshot(total, present int) Snapshot {
	if total < 0 {
		total = 0
	}
	if present < 0 {
		present = 0
	}
	if present > total {
		present = total
	}
	s := Snapshot{Total: total, Present: present, Absent: total - present}
	if total > 0 {
		s.Percentage = roundRatio(present*100, total)
	}
	return s
}

// Summarize computes every statistic for a cohort of total members.
// PRE: records belong to the cohort's roster
// POST: a cohort with zero members yields an all-zero Summary besides Month
func Summarize(records []attendance.Record, total int, today, month time.Time) Summary {
	month = dates.MonthStart(month)
	if total == 0 {
		return Summary{Month: month}
	}
	counts := DailyCounts(records)
	return Summary{
		Today:              TodaySnapshot(total, PresentOn(counts, today)),
		Month:              month,
		MonthlyAverage:     MonthlyAverage(counts, month),
		MonthlyMaximum:     MonthlyMaximum(counts, month),
		HistoricalMaximum:  Maximum(counts),
		DaysWithAttendance: len(inMonth(counts, month)),
	}
}

// Percent returns part/whole as a rounded percentage, 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return roundRatio(part*100, whole)
}

// roundRatio divides and rounds half away from zero.
func roundRatio(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}
