// Package cohort holds the fixed set of age-banded cohort profiles and the
// registry that assigns an age to exactly one of them.
//
// The administrative profile spans every age for access-control purposes and
// never takes part in interval reasoning or cohort assignment.
package cohort

import (
	"fmt"
	"sort"
	"strings"

	"roster/internal/domain/shared"
)

// Domain errors
var (
	ErrNoCohort       = shared.NewError("cohort", "CohortFor", shared.ErrNotFound, "no cohort covers this age")
	ErrUnknownCohort  = shared.NewError("cohort", "Get", shared.ErrNotFound, "unknown cohort")
	ErrAdminHasNoBand = shared.NewError("cohort", "IntervalOf", shared.ErrInvalidInput, "the administrative profile has no age band")
)

// Interval is an inclusive age range in completed years.
type Interval struct {
	Min int
	Max int
}

// Contains reports whether age lies within the interval.
func (iv Interval) Contains(age int) bool {
	return age >= iv.Min && age <= iv.Max
}

// String renders the interval as "[min,max]".
func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d]", iv.Min, iv.Max)
}

// Profile is one cohort (or the administrative profile).
type Profile struct {
	ID               string
	Name             string
	DisplayName      string
	Subtitle         string
	Interval         Interval
	MemberLabel      string
	LeaderLabel      string
	SystemName       string
	Admin            bool
	ShowPathLevels   bool
	PINHash          string // bcrypt hash of the cohort confirmation PIN
	ReportRecipients []string
}

// Validate checks the profile in isolation.
// PRE: Profile struct is populated
// POST: Returns an ErrConfiguration error if invalid, nil otherwise
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return shared.Misconfigured("cohort", "Validate", "profile id cannot be empty")
	}
	if strings.TrimSpace(p.Name) == "" {
		return shared.Misconfigured("cohort", "Validate", "profile %q has no name", p.ID)
	}
	if p.Interval.Min < 0 {
		return shared.Misconfigured("cohort", "Validate", "profile %q has a negative minimum age", p.ID)
	}
	if p.Interval.Min > p.Interval.Max {
		return shared.Misconfigured("cohort", "Validate", "profile %q has min %d > max %d", p.ID, p.Interval.Min, p.Interval.Max)
	}
	return nil
}

// Registry is the immutable, validated set of profiles.
type Registry struct {
	profiles []Profile // configuration order
	cohorts  []Profile // non-admin, ascending by Interval.Min
	byID     map[string]int
}

// NewRegistry validates profiles and builds a registry.
// PRE: profiles come from the configuration source, loaded once
// POST: Returns ErrConfiguration if any profile is invalid, ids repeat, two
// non-admin intervals overlap or leave a gap, or no non-admin profile exists
// INVARIANT: non-admin intervals are pairwise disjoint and contiguous
func NewRegistry(profiles []Profile) (*Registry, error) {
	r := &Registry{byID: make(map[string]int, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, shared.Misconfigured("cohort", "NewRegistry", "duplicate profile id %q", p.ID)
		}
		p.ReportRecipients = append([]string(nil), p.ReportRecipients...)
		r.byID[p.ID] = len(r.profiles)
		r.profiles = append(r.profiles, p)
		if !p.Admin {
			r.cohorts = append(r.cohorts, p)
		}
	}
	if len(r.cohorts) == 0 {
		return nil, shared.Misconfigured("cohort", "NewRegistry", "no non-administrative cohort configured")
	}

	sort.SliceStable(r.cohorts, func(i, j int) bool {
		return r.cohorts[i].Interval.Min < r.cohorts[j].Interval.Min
	})
	for i := 1; i < len(r.cohorts); i++ {
		prev, cur := r.cohorts[i-1], r.cohorts[i]
		if cur.Interval.Min <= prev.Interval.Max {
			return nil, shared.Misconfigured("cohort", "NewRegistry", "cohorts %q %s and %q %s overlap",
				prev.ID, prev.Interval, cur.ID, cur.Interval)
		}
		if cur.Interval.Min > prev.Interval.Max+1 {
			return nil, shared.Misconfigured("cohort", "NewRegistry", "ages %d-%d between cohorts %q and %q are not covered",
				prev.Interval.Max+1, cur.Interval.Min-1, prev.ID, cur.ID)
		}
	}
	return r, nil
}

// CohortFor returns the unique non-admin profile whose interval contains age.
// PRE: none
// POST: Returns ErrNoCohort when age falls outside every cohort
func (r *Registry) CohortFor(age int) (Profile, error) {
	for _, c := range r.cohorts {
		if c.Interval.Contains(age) {
			return c.clone(), nil
		}
	}
	return Profile{}, ErrNoCohort
}

// Get returns the profile with the given id.
func (r *Registry) Get(id string) (Profile, error) {
	i, ok := r.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownCohort, id)
	}
	return r.profiles[i].clone(), nil
}

// IntervalOf returns the age interval of a non-admin cohort.
func (r *Registry) IntervalOf(id string) (Interval, error) {
	p, err := r.Get(id)
	if err != nil {
		return Interval{}, err
	}
	if p.Admin {
		return Interval{}, ErrAdminHasNoBand
	}
	return p.Interval, nil
}

// Cohorts returns the non-admin profiles ordered by ascending age.
func (r *Registry) Cohorts() []Profile {
	out := make([]Profile, len(r.cohorts))
	for i, c := range r.cohorts {
		out[i] = c.clone()
	}
	return out
}

// Profiles returns every profile in configuration order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	for i, p := range r.profiles {
		out[i] = p.clone()
	}
	return out
}

func (p Profile) clone() Profile {
	p.ReportRecipients = append([]string(nil), p.ReportRecipients...)
	return p
}
