package projections

import (
	"context"
	"sort"
	"time"

	"roster/internal/domain/age"
	"roster/internal/domain/cohort"
)

// DefaultBirthdayWindowDays is how far ahead upcoming birthdays are listed.
const DefaultBirthdayWindowDays = 7

// GetUpcomingBirthdaysQuery carries query parameters.
type GetUpcomingBirthdaysQuery struct {
	CohortID string
	Today    time.Time
	Days     int // window length; <= 0 uses DefaultBirthdayWindowDays
}

// GetUpcomingBirthdaysDeps holds dependencies for GetUpcomingBirthdays.
type GetUpcomingBirthdaysDeps struct {
	Registry    *cohort.Registry
	MemberStore MemberStore
}

// UpcomingBirthday is a roster member with a birthday inside the window.
type UpcomingBirthday struct {
	MemberID string
	Name     string
	Date     time.Time // next birthday
	TurnsAge int
	InDays   int // 0 means today
}

// GetUpcomingBirthdaysResult carries the query result.
type GetUpcomingBirthdaysResult struct {
	Cohort    cohort.Profile
	Birthdays []UpcomingBirthday
}

// QueryGetUpcomingBirthdays lists roster members whose next birthday falls
// between Today and Today+Days inclusive.
// POST: Returns birthdays soonest first, then by name
func QueryGetUpcomingBirthdays(ctx context.Context, query GetUpcomingBirthdaysQuery, deps GetUpcomingBirthdaysDeps) (GetUpcomingBirthdaysResult, error) {
	days := query.Days
	if days <= 0 {
		days = DefaultBirthdayWindowDays
	}
	roster, err := QueryGetCohortRoster(ctx, GetCohortRosterQuery{CohortID: query.CohortID, Today: query.Today}, GetCohortRosterDeps(deps))
	if err != nil {
		return GetUpcomingBirthdaysResult{}, err
	}
	today := roster.Today
	limit := today.AddDate(0, 0, days)

	out := []UpcomingBirthday{}
	for _, m := range roster.Members {
		if m.BirthDate.IsZero() {
			continue
		}
		next := age.NextBirthday(m.BirthDate, today)
		if next.After(limit) {
			continue
		}
		turns, err := age.InYears(m.BirthDate, next)
		if err != nil {
			continue
		}
		out = append(out, UpcomingBirthday{
			MemberID: m.ID,
			Name:     m.DisplayName(),
			Date:     next,
			TurnsAge: turns,
			InDays:   int(next.Sub(today).Hours() / 24),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].InDays != out[j].InDays {
			return out[i].InDays < out[j].InDays
		}
		return out[i].Name < out[j].Name
	})
	return GetUpcomingBirthdaysResult{Cohort: roster.Cohort, Birthdays: out}, nil
}
