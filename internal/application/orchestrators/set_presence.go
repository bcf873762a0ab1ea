package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"roster/internal/adapters/lock"
	"roster/internal/domain/attendance"
	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/member"
	"roster/internal/domain/shared"
)

// ErrNotOnRoster is returned when the member's effective cohort is not the acting cohort.
var ErrNotOnRoster = shared.NewError("attendance", "Set", shared.ErrNotFound, "member is not on this cohort's roster")

// AttendanceStore defines the ledger interface the presence orchestrators need.
type AttendanceStore interface {
	Upsert(ctx context.Context, memberID string, date time.Time, present bool) (attendance.Record, error)
	Get(ctx context.Context, memberID string, date time.Time) (attendance.Record, error)
}

// PresenceMemberStore defines the member lookup the presence orchestrators need.
type PresenceMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// PresenceRecorder receives successful ledger writes (metrics).
type PresenceRecorder interface {
	PresenceWritten(cohortID string, present bool)
}

// SetPresenceInput carries input for the set-presence orchestrator.
type SetPresenceInput struct {
	CohortID string // acting cohort; the member must be on its roster
	MemberID string
	Date     time.Time
	Present  bool
	Today    time.Time // roster membership is resolved on this date; zero means now
}

// SetPresenceDeps holds dependencies for SetPresence and TogglePresence.
type SetPresenceDeps struct {
	Registry        *cohort.Registry
	MemberStore     PresenceMemberStore
	AttendanceStore AttendanceStore
	Locker          lock.Locker
	Recorder        PresenceRecorder // optional: nil skips metrics
}

// checkRoster resolves the acting cohort and the member, and rejects members
// listed elsewhere.
// POST: returns ErrUnknownCohort, member.ErrNotFound or ErrNotOnRoster before any write
func checkRoster(ctx context.Context, cohortID, memberID string, today time.Time, deps SetPresenceDeps) error {
	if _, err := deps.Registry.IntervalOf(cohortID); err != nil {
		return err
	}
	m, err := deps.MemberStore.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if today.IsZero() {
		today = time.Now().UTC()
	}
	current, err := m.EffectiveCohort(deps.Registry, dates.Civil(today))
	if err != nil || current != cohortID {
		return fmt.Errorf("%w: %s is not listed in %s", ErrNotOnRoster, memberID, cohortID)
	}
	return nil
}

// validate checks the slot before any lock is taken.
func (in SetPresenceInput) validate() (attendance.Record, error) {
	r := attendance.Record{MemberID: in.MemberID, Date: dates.Civil(in.Date), Present: in.Present}
	return r, r.Validate()
}

// ExecuteSetPresence records whether a member attended on a date.
// PRE: MemberID is non-empty, Date is set, CohortID names a non-admin cohort
// POST: exactly one record exists for (MemberID, Date) with Present == input.Present
// INVARIANT: writers for the same slot serialize; different slots proceed in parallel
func ExecuteSetPresence(ctx context.Context, input SetPresenceInput, deps SetPresenceDeps) (attendance.Record, error) {
	slot, err := input.validate()
	if err != nil {
		return attendance.Record{}, err
	}
	if err := checkRoster(ctx, input.CohortID, slot.MemberID, input.Today, deps); err != nil {
		return attendance.Record{}, err
	}
	unlock, err := deps.Locker.Lock(ctx, slot.Key())
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to lock %s: %w", slot.Key(), err)
	}
	defer unlock()

	rec, err := deps.AttendanceStore.Upsert(ctx, slot.MemberID, slot.Date, slot.Present)
	if err != nil {
		return attendance.Record{}, err
	}
	if deps.Recorder != nil {
		deps.Recorder.PresenceWritten(input.CohortID, rec.Present)
	}
	slog.Info("presence_event", "event", "presence_set", "cohort_id", input.CohortID, "member_id", rec.MemberID, "date", dates.Format(rec.Date), "present", rec.Present)
	return rec, nil
}

// TogglePresenceInput carries input for the toggle orchestrator.
type TogglePresenceInput struct {
	CohortID string
	MemberID string
	Date     time.Time
	Today    time.Time
}

// ExecuteTogglePresence flips a member's presence on a date. A slot without a
// record counts as absent, so the first toggle marks the member present.
// PRE: MemberID is non-empty, Date is set, CohortID names a non-admin cohort
// POST: Returns the record holding the inverted value
// INVARIANT: read and write happen under the slot lock, so concurrent toggles never lose an update
func ExecuteTogglePresence(ctx context.Context, input TogglePresenceInput, deps SetPresenceDeps) (attendance.Record, error) {
	slot, err := SetPresenceInput{MemberID: input.MemberID, Date: input.Date}.validate()
	if err != nil {
		return attendance.Record{}, err
	}
	if err := checkRoster(ctx, input.CohortID, slot.MemberID, input.Today, deps); err != nil {
		return attendance.Record{}, err
	}
	unlock, err := deps.Locker.Lock(ctx, slot.Key())
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to lock %s: %w", slot.Key(), err)
	}
	defer unlock()

	current := false
	existing, err := deps.AttendanceStore.Get(ctx, slot.MemberID, slot.Date)
	switch {
	case err == nil:
		current = existing.Present
	case !errors.Is(err, attendance.ErrRecordNotFound):
		return attendance.Record{}, err
	}

	rec, err := deps.AttendanceStore.Upsert(ctx, slot.MemberID, slot.Date, !current)
	if err != nil {
		return attendance.Record{}, err
	}
	if deps.Recorder != nil {
		deps.Recorder.PresenceWritten(input.CohortID, rec.Present)
	}
	slog.Info("presence_event", "event", "presence_toggled", "cohort_id", input.CohortID, "member_id", rec.MemberID, "date", dates.Format(rec.Date), "present", rec.Present)
	return rec, nil
}
