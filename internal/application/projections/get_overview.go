package projections

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"roster/internal/domain/cohort"
	"roster/internal/domain/stats"
)

// overviewConcurrency bounds the cohorts summarized at once.
const overviewConcurrency = 4

// GetOverviewQuery carries query parameters.
type GetOverviewQuery struct {
	Today time.Time
}

// GetOverviewDeps holds dependencies for GetOverview.
type GetOverviewDeps struct {
	Registry        *cohort.Registry
	MemberStore     MemberStore
	AttendanceStore AttendanceStore
}

// CohortOverview is today's state of one cohort.
type CohortOverview struct {
	Cohort    cohort.Profile
	Today     stats.Snapshot
	Birthdays int // upcoming within the default window
	Pending   int // transition candidates
}

// GetOverviewResult carries the query result.
type GetOverviewResult struct {
	Date    time.Time
	Cohorts []CohortOverview
}

// QueryGetOverview summarizes every non-admin cohort concurrently.
// POST: Cohorts are in ascending age order; the first failure cancels the rest
func QueryGetOverview(ctx context.Context, query GetOverviewQuery, deps GetOverviewDeps) (GetOverviewResult, error) {
	today := resolveToday(query.Today)
	cohorts := deps.Registry.Cohorts()
	out := make([]CohortOverview, len(cohorts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)
	for i, c := range cohorts {
		g.Go(func() error {
			ov, err := overviewOf(gctx, c, today, deps)
			if err != nil {
				return err
			}
			out[i] = ov
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return GetOverviewResult{}, err
	}
	return GetOverviewResult{Date: today, Cohorts: out}, nil
}

func overviewOf(ctx context.Context, c cohort.Profile, today time.Time, deps GetOverviewDeps) (CohortOverview, error) {
	rosterDeps := GetCohortRosterDeps{Registry: deps.Registry, MemberStore: deps.MemberStore}
	day, err := QueryGetDayDetail(ctx, GetDayDetailQuery{CohortID: c.ID, Today: today}, GetDayDetailDeps{
		Registry:        deps.Registry,
		MemberStore:     deps.MemberStore,
		AttendanceStore: deps.AttendanceStore,
	})
	if err != nil {
		return CohortOverview{}, err
	}
	bdays, err := QueryGetUpcomingBirthdays(ctx, GetUpcomingBirthdaysQuery{CohortID: c.ID, Today: today}, GetUpcomingBirthdaysDeps(rosterDeps))
	if err != nil {
		return CohortOverview{}, err
	}
	pending, err := QueryGetTransitionCandidates(ctx, GetTransitionCandidatesQuery{CohortID: c.ID, Today: today}, GetTransitionCandidatesDeps(rosterDeps))
	if err != nil {
		return CohortOverview{}, err
	}
	return CohortOverview{
		Cohort:    c,
		Today:     day.Snapshot,
		Birthdays: len(bdays.Birthdays),
		Pending:   len(pending.Candidates),
	}, nil
}
