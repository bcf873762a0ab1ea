package projections

import (
	"context"
	"time"

	"roster/internal/adapters/storage/member"
	domainAttendance "roster/internal/domain/attendance"
	domainMember "roster/internal/domain/member"
)

// MemberStore interface for member queries.
type MemberStore interface {
	List(ctx context.Context, filter member.ListFilter) ([]domainMember.Member, error)
}

// AttendanceStore interface for ledger reads. Every method is a bulk read.
type AttendanceStore interface {
	Get(ctx context.Context, memberID string, date time.Time) (domainAttendance.Record, error)
	ListByMemberIDsAndDateRange(ctx context.Context, memberIDs []string, from, to time.Time) ([]domainAttendance.Record, error)
	ListByMemberIDs(ctx context.Context, memberIDs []string) ([]domainAttendance.Record, error)
}
