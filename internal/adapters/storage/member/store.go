package member

import (
	"context"
	"time"

	domain "roster/internal/domain/member"
)

// Store persists Member state. Members are registered by an external
// collaborator; the engine reads them and pins their cohort on transitions.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	SetCohort(ctx context.Context, id string, cohortID string) error
}

// ListFilter carries filtering parameters for List operations.
// Zero-valued fields do not filter.
type ListFilter struct {
	BornFrom time.Time // inclusive
	BornTo   time.Time // inclusive
	CohortID string    // pinned cohort
	Unpinned bool      // only members without a pinned cohort
	Limit    int
	Offset   int
}
