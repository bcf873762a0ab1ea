package projections

import (
	"context"
	"errors"
	"time"

	domainAttendance "roster/internal/domain/attendance"
	"roster/internal/domain/dates"
	"roster/internal/domain/shared"
)

// PresenceOnQuery carries query parameters.
type PresenceOnQuery struct {
	MemberID string
	Date     time.Time
}

// PresenceOnDeps holds dependencies for PresenceOn.
type PresenceOnDeps struct {
	AttendanceStore AttendanceStore
}

// QueryPresenceOn resolves a member's presence on a date.
// PRE: MemberID is non-empty, Date is set
// POST: A missing record resolves to Present false, HasRecord false
func QueryPresenceOn(ctx context.Context, query PresenceOnQuery, deps PresenceOnDeps) (domainAttendance.Presence, error) {
	if query.MemberID == "" || query.Date.IsZero() {
		return domainAttendance.Presence{}, shared.Invalid("attendance", "PresenceOn", "member id and date are required")
	}
	rec, err := deps.AttendanceStore.Get(ctx, query.MemberID, query.Date)
	if errors.Is(err, domainAttendance.ErrRecordNotFound) {
		return domainAttendance.Presence{}, nil
	}
	if err != nil {
		return domainAttendance.Presence{}, err
	}
	return domainAttendance.Presence{Present: rec.Present, HasRecord: true}, nil
}

// RecordsInRangeQuery carries query parameters.
type RecordsInRangeQuery struct {
	MemberIDs []string
	From      time.Time
	To        time.Time
}

// RecordsInRangeDeps holds dependencies for RecordsInRange.
type RecordsInRangeDeps struct {
	AttendanceStore AttendanceStore
}

// QueryRecordsInRange returns every record of the members with From <= date <= To
// in a single bulk read.
// PRE: From <= To
// POST: Returns records ordered by date then member id
func QueryRecordsInRange(ctx context.Context, query RecordsInRangeQuery, deps RecordsInRangeDeps) ([]domainAttendance.Record, error) {
	if query.From.IsZero() || query.To.IsZero() {
		return nil, shared.Invalid("attendance", "RecordsInRange", "date range is required")
	}
	from, to := dates.Civil(query.From), dates.Civil(query.To)
	if to.Before(from) {
		return nil, shared.Invalid("attendance", "RecordsInRange", "range end %s is before start %s", dates.Format(to), dates.Format(from))
	}
	if len(query.MemberIDs) == 0 {
		return nil, nil
	}
	return deps.AttendanceStore.ListByMemberIDsAndDateRange(ctx, query.MemberIDs, from, to)
}
