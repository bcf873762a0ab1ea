package projections

import (
	"context"
	"log/slog"
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/transition"
)

// GetTransitionCandidatesQuery carries query parameters.
type GetTransitionCandidatesQuery struct {
	CohortID string
	Today    time.Time
}

// GetTransitionCandidatesDeps holds dependencies for GetTransitionCandidates.
type GetTransitionCandidatesDeps struct {
	Registry    *cohort.Registry
	MemberStore MemberStore
}

// GetTransitionCandidatesResult carries the query result.
type GetTransitionCandidatesResult struct {
	Cohort     cohort.Profile
	Candidates []transition.Candidate
}

// QueryGetTransitionCandidates lists roster members who have outgrown the cohort.
// Members whose age cannot be computed (birth date missing or after today)
// are logged and left out instead of failing the pass.
// INVARIANT: recomputed from the current date on every call, never cached
func QueryGetTransitionCandidates(ctx context.Context, query GetTransitionCandidatesQuery, deps GetTransitionCandidatesDeps) (GetTransitionCandidatesResult, error) {
	roster, err := QueryGetCohortRoster(ctx, GetCohortRosterQuery{CohortID: query.CohortID, Today: query.Today}, GetCohortRosterDeps(deps))
	if err != nil {
		return GetTransitionCandidatesResult{}, err
	}
	members := roster.Members[:0:0]
	for _, m := range roster.Members {
		if _, err := m.Age(roster.Today); err != nil {
			slog.Warn("transition_event", "event", "member_skipped", "cohort_id", roster.Cohort.ID, "member_id", m.ID, "error", err.Error())
			continue
		}
		members = append(members, m)
	}
	candidates, err := transition.Detect(deps.Registry, roster.Cohort.ID, members, roster.Today)
	if err != nil {
		return GetTransitionCandidatesResult{}, err
	}
	if candidates == nil {
		candidates = []transition.Candidate{}
	}
	return GetTransitionCandidatesResult{Cohort: roster.Cohort, Candidates: candidates}, nil
}
