package member

import (
	"errors"
	"strings"
	"time"

	"roster/internal/domain/age"
	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/shared"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Domain errors
var (
	ErrNotFound     = shared.NewError("member", "Get", shared.ErrNotFound, "member not found")
	ErrNoBirthDate  = shared.NewError("member", "Age", shared.ErrInvalidInput, "member has no birth date")
	ErrAlreadyThere = errors.New("member is already pinned to that cohort")
)

// Member is a person tracked for attendance. Display fields beyond the name
// belong to the registration collaborator and are carried through untouched.
type Member struct {
	ID            string
	Name          string
	PreferredName string
	BirthDate     time.Time // civil date
	PathLevel     string    // discipleship path level, shown for some cohorts
	CohortID      string    // pinned effective cohort; empty means derived from age
	CreatedAt     time.Time
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: ID and Name must not be empty, BirthDate must be set
func (m *Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return shared.Invalid("member", "Validate", "member id cannot be empty")
	}
	if strings.TrimSpace(m.Name) == "" {
		return shared.Invalid("member", "Validate", "member name cannot be empty")
	}
	if len(m.Name) > MaxNameLength {
		return shared.Invalid("member", "Validate", "member name cannot exceed %d characters", MaxNameLength)
	}
	if m.BirthDate.IsZero() {
		return ErrNoBirthDate
	}
	return nil
}

// DisplayName returns the preferred name when set, the full name otherwise.
func (m *Member) DisplayName() string {
	if strings.TrimSpace(m.PreferredName) != "" {
		return m.PreferredName
	}
	return m.Name
}

// Age returns the member's age in completed years on asOf.
// INVARIANT: Member fields are not mutated
func (m *Member) Age(asOf time.Time) (int, error) {
	if m.BirthDate.IsZero() {
		return 0, ErrNoBirthDate
	}
	return age.InYears(m.BirthDate, asOf)
}

// IsPinned reports whether the member's cohort was set explicitly.
func (m *Member) IsPinned() bool {
	return m.CohortID != ""
}

// EffectiveCohort returns the pinned cohort, or the cohort the member was
// assigned at registration. An unpinned member keeps that cohort as they age
// until a confirmed transition pins them elsewhere.
// PRE: reg is a validated registry
// POST: Returns ErrNoCohort when neither the registration age nor the age on
// asOf falls inside a cohort
func (m *Member) EffectiveCohort(reg *cohort.Registry, asOf time.Time) (string, error) {
	if m.IsPinned() {
		return m.CohortID, nil
	}
	asOf = dates.Civil(asOf)
	if on := m.assignedOn(asOf); !on.Equal(asOf) {
		if a, err := m.Age(on); err == nil {
			if p, err := reg.CohortFor(a); err == nil {
				return p.ID, nil
			}
		}
	}
	a, err := m.Age(asOf)
	if err != nil {
		return "", err
	}
	p, err := reg.CohortFor(a)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// assignedOn is the registration date, or asOf when the member has none,
// registered after asOf, or registered before birth.
func (m *Member) assignedOn(asOf time.Time) time.Time {
	if m.CreatedAt.IsZero() {
		return asOf
	}
	on := dates.Civil(m.CreatedAt)
	if on.After(asOf) || on.Before(dates.Civil(m.BirthDate)) {
		return asOf
	}
	return on
}

// PinTo sets the member's effective cohort after a confirmed transition.
// PRE: cohortID names a non-admin cohort
// POST: CohortID is set to cohortID
func (m *Member) PinTo(cohortID string) error {
	if m.CohortID == cohortID {
		return ErrAlreadyThere
	}
	m.CohortID = cohortID
	return nil
}
