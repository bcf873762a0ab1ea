package attendance

import (
	"strings"
	"time"

	"roster/internal/domain/dates"
	"roster/internal/domain/shared"
)

// Domain errors
var (
	ErrRecordNotFound = shared.NewError("attendance", "Get", shared.ErrNotFound, "attendance record not found")
)

// Record is the explicit presence mark for one member on one date.
// At most one Record exists per (MemberID, Date).
type Record struct {
	ID        string
	MemberID  string
	Date      time.Time // civil date, UTC midnight
	Present   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: MemberID must not be empty, Date must be set
func (r *Record) Validate() error {
	if strings.TrimSpace(r.MemberID) == "" {
		return shared.Invalid("attendance", "Validate", "attendance must be associated with a member")
	}
	if r.Date.IsZero() {
		return shared.Invalid("attendance", "Validate", "attendance date must be set")
	}
	return nil
}

// Key identifies the (member, date) slot a Record occupies.
func Key(memberID string, date time.Time) string {
	return memberID + "|" + dates.Format(date)
}

// Key returns the slot key for this Record.
func (r *Record) Key() string {
	return Key(r.MemberID, r.Date)
}

// Presence is the resolved presence of a member on a date.
// A missing record resolves to Present false, HasRecord false.
type Presence struct {
	Present   bool
	HasRecord bool
}
