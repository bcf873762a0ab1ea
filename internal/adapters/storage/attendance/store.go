package attendance

import (
	"context"
	"time"

	domain "roster/internal/domain/attendance"
)

// Store persists the attendance ledger: at most one Record per (member, date).
type Store interface {
	// Upsert sets the presence for a slot, creating the record if needed.
	Upsert(ctx context.Context, memberID string, date time.Time, present bool) (domain.Record, error)
	Get(ctx context.Context, memberID string, date time.Time) (domain.Record, error)
	ListByMemberIDsAndDateRange(ctx context.Context, memberIDs []string, from, to time.Time) ([]domain.Record, error)
	ListByMemberIDs(ctx context.Context, memberIDs []string) ([]domain.Record, error)
}
