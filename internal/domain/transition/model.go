// Package transition detects members who have outgrown their cohort and
// records confirmed moves between cohorts.
package transition

import (
	"sort"
	"strings"
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/member"
	"roster/internal/domain/shared"
)

// Domain errors
var (
	ErrNotCandidate = shared.NewError("transition", "Confirm", shared.ErrInvalidInput, "member is not a transition candidate")
)

// Reason values recorded on a Transition.
const (
	ReasonAgedOut = "aged_out"
)

// Candidate is a member whose age has left their current cohort's interval,
// with the single cohort their age now belongs to.
type Candidate struct {
	MemberID            string
	Name                string
	BirthDate           time.Time
	Age                 int
	CurrentCohortID     string
	SuggestedCohortID   string
	SuggestedCohortName string
}

// Transition is a confirmed move of a member between cohorts.
type Transition struct {
	ID           string
	MemberID     string
	FromCohortID string
	ToCohortID   string
	Reason       string
	CreatedAt    time.Time
}

// Validate checks if the Transition has valid data.
// PRE: Transition struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: source and destination differ
func (t *Transition) Validate() error {
	if strings.TrimSpace(t.MemberID) == "" {
		return shared.Invalid("transition", "Validate", "transition must be associated with a member")
	}
	if t.FromCohortID == "" || t.ToCohortID == "" {
		return shared.Invalid("transition", "Validate", "transition needs source and destination cohorts")
	}
	if t.FromCohortID == t.ToCohortID {
		return shared.Invalid("transition", "Validate", "source and destination cohorts must differ")
	}
	return nil
}

// Evaluate decides whether m, listed in currentCohortID, should move.
// PRE: reg is a validated registry
// POST: ok is false when the age is inside the interval, in a registry gap,
// or maps back to the current cohort
func Evaluate(reg *cohort.Registry, currentCohortID string, m member.Member, asOf time.Time) (Candidate, bool, error) {
	iv, err := reg.IntervalOf(currentCohortID)
	if err != nil {
		return Candidate{}, false, err
	}
	return evaluate(reg, iv, currentCohortID, m, asOf)
}

func evaluate(reg *cohort.Registry, iv cohort.Interval, currentCohortID string, m member.Member, asOf time.Time) (Candidate, bool, error) {
	a, err := m.Age(asOf)
	if err != nil {
		return Candidate{}, false, err
	}
	if iv.Contains(a) {
		return Candidate{}, false, nil
	}
	dest, err := reg.CohortFor(a)
	if err != nil {
		// outside every band: nothing to propose
		return Candidate{}, false, nil
	}
	if dest.ID == currentCohortID {
		return Candidate{}, false, nil
	}
	return Candidate{
		MemberID:            m.ID,
		Name:                m.DisplayName(),
		BirthDate:           m.BirthDate,
		Age:                 a,
		CurrentCohortID:     currentCohortID,
		SuggestedCohortID:   dest.ID,
		SuggestedCohortName: dest.Name,
	}, true, nil
}

// Detect returns the transition candidates among members of currentCohortID.
// PRE: members are the cohort's roster
// POST: Returns candidates ordered by name then member id
// INVARIANT: results are computed fresh from asOf on every call
func Detect(reg *cohort.Registry, currentCohortID string, members []member.Member, asOf time.Time) ([]Candidate, error) {
	iv, err := reg.IntervalOf(currentCohortID)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, m := range members {
		c, ok, err := evaluate(reg, iv, currentCohortID, m, asOf)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out, nil
}
