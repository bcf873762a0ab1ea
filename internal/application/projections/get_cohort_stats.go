package projections

import (
	"context"
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/stats"
)

// GetCohortStatsQuery carries query parameters.
type GetCohortStatsQuery struct {
	CohortID string
	Today    time.Time
	Month    time.Time // any day of the month to summarize; zero means Today's month
}

// GetCohortStatsDeps holds dependencies for GetCohortStats.
type GetCohortStatsDeps struct {
	Registry        *cohort.Registry
	MemberStore     MemberStore
	AttendanceStore AttendanceStore
}

// GetCohortStatsResult carries the query result.
type GetCohortStatsResult struct {
	Cohort  cohort.Profile
	Summary stats.Summary
}

// QueryGetCohortStats summarizes a cohort's attendance. The whole roster's
// history is fetched in one bulk read.
// PRE: CohortID names a non-admin cohort
// POST: A cohort without members yields an all-zero summary
func QueryGetCohortStats(ctx context.Context, query GetCohortStatsQuery, deps GetCohortStatsDeps) (GetCohortStatsResult, error) {
	roster, err := QueryGetCohortRoster(ctx, GetCohortRosterQuery{CohortID: query.CohortID, Today: query.Today}, GetCohortRosterDeps{
		Registry:    deps.Registry,
		MemberStore: deps.MemberStore,
	})
	if err != nil {
		return GetCohortStatsResult{}, err
	}
	month := query.Month
	if month.IsZero() {
		month = roster.Today
	}
	month = dates.MonthStart(month)

	if len(roster.Members) == 0 {
		return GetCohortStatsResult{Cohort: roster.Cohort, Summary: stats.Summarize(nil, 0, roster.Today, month)}, nil
	}
	records, err := deps.AttendanceStore.ListByMemberIDs(ctx, roster.MemberIDs())
	if err != nil {
		return GetCohortStatsResult{}, err
	}
	return GetCohortStatsResult{
		Cohort:  roster.Cohort,
		Summary: stats.Summarize(records, len(roster.Members), roster.Today, month),
	}, nil
}
