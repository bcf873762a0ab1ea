package projections

import (
	"context"
	"slices"
	"sort"
	"time"

	"roster/internal/adapters/storage/member"
	"roster/internal/application/listutil"
	"roster/internal/domain/age"
	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	domainMember "roster/internal/domain/member"
)

// GetCohortRosterQuery carries query parameters.
type GetCohortRosterQuery struct {
	CohortID string
	Today    time.Time // zero means the current UTC date
}

// GetCohortRosterDeps holds dependencies for GetCohortRoster.
type GetCohortRosterDeps struct {
	Registry    *cohort.Registry
	MemberStore MemberStore
}

// GetCohortRosterResult carries the query result.
type GetCohortRosterResult struct {
	Cohort  cohort.Profile
	Today   time.Time
	Members []domainMember.Member
}

// MemberIDs returns the ids of the roster in order.
func (r GetCohortRosterResult) MemberIDs() []string {
	ids := make([]string, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}
	return ids
}

// resolveToday defaults a zero date to the current UTC date.
func resolveToday(t time.Time) time.Time {
	if t.IsZero() {
		return dates.Today(time.Now(), time.UTC)
	}
	return dates.Civil(t)
}

// QueryGetCohortRoster lists the members whose effective cohort is CohortID today:
// unpinned members assigned to it at registration, plus members pinned to it.
// An unpinned member who outgrows the cohort stays listed until a confirmed
// transition pins them elsewhere.
// PRE: CohortID names a non-admin cohort
// POST: Returns members sorted by name then id, each exactly once
func QueryGetCohortRoster(ctx context.Context, query GetCohortRosterQuery, deps GetCohortRosterDeps) (GetCohortRosterResult, error) {
	p, err := deps.Registry.Get(query.CohortID)
	if err != nil {
		return GetCohortRosterResult{}, err
	}
	iv, err := deps.Registry.IntervalOf(p.ID)
	if err != nil {
		return GetCohortRosterResult{}, err
	}
	today := resolveToday(query.Today)

	// Ages only grow, so everyone assigned here is at least iv.Min today.
	_, to := age.BirthWindow(iv, today)
	unpinned, err := deps.MemberStore.List(ctx, member.ListFilter{BornTo: to, Unpinned: true})
	if err != nil {
		return GetCohortRosterResult{}, err
	}
	byAge := unpinned[:0:0]
	for _, m := range unpinned {
		if id, err := m.EffectiveCohort(deps.Registry, today); err == nil && id == p.ID {
			byAge = append(byAge, m)
		}
	}
	pinned, err := deps.MemberStore.List(ctx, member.ListFilter{CohortID: p.ID})
	if err != nil {
		return GetCohortRosterResult{}, err
	}

	seen := make(map[string]bool, len(byAge)+len(pinned))
	members := make([]domainMember.Member, 0, len(byAge)+len(pinned))
	for _, list := range [][]domainMember.Member{byAge, pinned} {
		for _, m := range list {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].ID < members[j].ID
	})

	return GetCohortRosterResult{Cohort: p, Today: today, Members: members}, nil
}

// RosterSortColumns are the columns QueryListCohortRoster sorts by.
var RosterSortColumns = []string{"name", "age", "birth_date"}

// RosterEntry is one roster row with its derived fields.
type RosterEntry struct {
	Member domainMember.Member
	Age    int
	Pinned bool
}

// ListCohortRosterQuery carries query parameters.
type ListCohortRosterQuery struct {
	CohortID string
	Today    time.Time
	Params   listutil.ListParams
}

// ListCohortRosterResult carries one page of the roster.
type ListCohortRosterResult struct {
	Cohort   cohort.Profile
	Today    time.Time
	Entries  []RosterEntry
	PageInfo listutil.PageInfo
}

// QueryListCohortRoster searches, sorts and pages a cohort's roster.
// POST: PageInfo.Total counts the rows matching Params.Search
func QueryListCohortRoster(ctx context.Context, query ListCohortRosterQuery, deps GetCohortRosterDeps) (ListCohortRosterResult, error) {
	roster, err := QueryGetCohortRoster(ctx, GetCohortRosterQuery{CohortID: query.CohortID, Today: query.Today}, deps)
	if err != nil {
		return ListCohortRosterResult{}, err
	}

	entries := make([]RosterEntry, 0, len(roster.Members))
	for _, m := range roster.Members {
		if !query.Params.Matches(m.Name, m.PreferredName) {
			continue
		}
		a, err := m.Age(roster.Today)
		if err != nil {
			return ListCohortRosterResult{}, err
		}
		entries = append(entries, RosterEntry{Member: m, Age: a, Pinned: m.IsPinned()})
	}

	var less func(a, b RosterEntry) bool
	switch query.Params.Sort {
	case "age":
		less = func(a, b RosterEntry) bool { return a.Age < b.Age }
	case "birth_date":
		less = func(a, b RosterEntry) bool { return a.Member.BirthDate.Before(b.Member.BirthDate) }
	}
	desc := query.Params.Dir == listutil.Desc
	switch {
	case less != nil:
		sort.SliceStable(entries, func(i, j int) bool {
			if desc {
				return less(entries[j], entries[i])
			}
			return less(entries[i], entries[j])
		})
	case desc:
		// roster is already in name order
		slices.Reverse(entries)
	}

	page, info := listutil.Paginate(entries, query.Params.Page, query.Params.PerPage)
	return ListCohortRosterResult{Cohort: roster.Cohort, Today: roster.Today, Entries: page, PageInfo: info}, nil
}
