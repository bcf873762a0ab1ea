package transition

import (
	"context"

	domain "roster/internal/domain/transition"
)

// Store persists confirmed cohort transitions.
type Store interface {
	// Apply pins the member to ToCohortID and appends the transition, atomically.
	Apply(ctx context.Context, t domain.Transition) error
	ListByMemberID(ctx context.Context, memberID string) ([]domain.Transition, error)
}
