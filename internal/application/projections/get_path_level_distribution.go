package projections

import (
	"context"
	"strings"
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/shared"
	"roster/internal/domain/stats"
)

// ErrPathLevelsHidden is returned for cohorts that do not track path levels.
var ErrPathLevelsHidden = shared.NewError("projections", "PathLevelDistribution", shared.ErrInvalidInput, "cohort does not track path levels")

// GetPathLevelDistributionQuery carries query parameters.
type GetPathLevelDistributionQuery struct {
	CohortID string
	Today    time.Time
}

// GetPathLevelDistributionDeps holds dependencies for GetPathLevelDistribution.
type GetPathLevelDistributionDeps struct {
	Registry    *cohort.Registry
	MemberStore MemberStore
	Stages      []cohort.PathStage
}

// StageCount is the number of roster members whose level belongs to a stage.
type StageCount struct {
	Name       string
	Count      int
	Percentage int // of the whole roster
}

// GetPathLevelDistributionResult carries the query result.
type GetPathLevelDistributionResult struct {
	Cohort     cohort.Profile
	Total      int
	Stages     []StageCount
	Unassigned int // no level, or a level outside every stage
}

// QueryGetPathLevelDistribution counts roster members per discipleship stage.
// PRE: the cohort has ShowPathLevels set
// POST: sum of stage counts + Unassigned == Total
func QueryGetPathLevelDistribution(ctx context.Context, query GetPathLevelDistributionQuery, deps GetPathLevelDistributionDeps) (GetPathLevelDistributionResult, error) {
	p, err := deps.Registry.Get(query.CohortID)
	if err != nil {
		return GetPathLevelDistributionResult{}, err
	}
	if !p.ShowPathLevels {
		return GetPathLevelDistributionResult{}, ErrPathLevelsHidden
	}
	roster, err := QueryGetCohortRoster(ctx, GetCohortRosterQuery{CohortID: p.ID, Today: query.Today}, GetCohortRosterDeps{
		Registry:    deps.Registry,
		MemberStore: deps.MemberStore,
	})
	if err != nil {
		return GetPathLevelDistributionResult{}, err
	}

	stageOf := make(map[string]int)
	for i, s := range deps.Stages {
		for _, l := range s.Levels {
			stageOf[strings.ToLower(strings.TrimSpace(l))] = i
		}
	}
	counts := make([]int, len(deps.Stages))
	unassigned := 0
	for _, m := range roster.Members {
		i, ok := stageOf[strings.ToLower(strings.TrimSpace(m.PathLevel))]
		if !ok || m.PathLevel == "" {
			unassigned++
			continue
		}
		counts[i]++
	}

	total := len(roster.Members)
	result := GetPathLevelDistributionResult{Cohort: p, Total: total, Unassigned: unassigned}
	for i, s := range deps.Stages {
		result.Stages = append(result.Stages, StageCount{
			Name:       s.Name,
			Count:      counts[i],
			Percentage: stats.Percent(counts[i], total),
		})
	}
	return result, nil
}
