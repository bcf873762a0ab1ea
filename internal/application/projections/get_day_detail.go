package projections

import (
	"context"
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/stats"
)

// GetDayDetailQuery carries query parameters.
type GetDayDetailQuery struct {
	CohortID string
	Date     time.Time // day to inspect; zero means Today
	Today    time.Time // roster reference date
}

// GetDayDetailDeps holds dependencies for GetDayDetail.
type GetDayDetailDeps struct {
	Registry        *cohort.Registry
	MemberStore     MemberStore
	AttendanceStore AttendanceStore
}

// DayDetailRow is one roster member's presence on the inspected day.
type DayDetailRow struct {
	MemberID   string
	Name       string
	PathLevel  string
	Present    bool
	Registered bool // an explicit record exists
}

// GetDayDetailResult carries the query result.
type GetDayDetailResult struct {
	Cohort   cohort.Profile
	Date     time.Time
	Rows     []DayDetailRow
	Snapshot stats.Snapshot
}

// QueryGetDayDetail lists every roster member with their mark on one day.
// PRE: CohortID names a non-admin cohort
// POST: Rows follow roster order; one ledger read regardless of roster size
func QueryGetDayDetail(ctx context.Context, query GetDayDetailQuery, deps GetDayDetailDeps) (GetDayDetailResult, error) {
	roster, err := QueryGetCohortRoster(ctx, GetCohortRosterQuery{CohortID: query.CohortID, Today: query.Today}, GetCohortRosterDeps{
		Registry:    deps.Registry,
		MemberStore: deps.MemberStore,
	})
	if err != nil {
		return GetDayDetailResult{}, err
	}
	day := roster.Today
	if !query.Date.IsZero() {
		day = dates.Civil(query.Date)
	}

	result := GetDayDetailResult{Cohort: roster.Cohort, Date: day, Rows: []DayDetailRow{}}
	if len(roster.Members) == 0 {
		return result, nil
	}
	records, err := deps.AttendanceStore.ListByMemberIDsAndDateRange(ctx, roster.MemberIDs(), day, day)
	if err != nil {
		return GetDayDetailResult{}, err
	}
	marks := make(map[string]bool, len(records))
	for _, r := range records {
		marks[r.MemberID] = r.Present
	}

	present := 0
	for _, m := range roster.Members {
		p, registered := marks[m.ID]
		if p {
			present++
		}
		result.Rows = append(result.Rows, DayDetailRow{
			MemberID:   m.ID,
			Name:       m.DisplayName(),
			PathLevel:  m.PathLevel,
			Present:    p,
			Registered: registered,
		})
	}
	result.Snapshot = stats.TodaySnapshot(len(roster.Members), present)
	return result, nil
}
