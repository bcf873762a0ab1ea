package orchestrators

import (
	"context"
	"fmt"
	"sync"
	"time"

	"roster/internal/adapters/email"
	"roster/internal/adapters/storage/member"
	"roster/internal/domain/attendance"
	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	domainMember "roster/internal/domain/member"
	"roster/internal/domain/transition"
)

// --- Mock attendance store ---

type mockAttendanceStore struct {
	mu      sync.Mutex
	records map[string]attendance.Record
	upserts int
	bulk    int
	getErr  error
}

func newMockAttendanceStore() *mockAttendanceStore {
	return &mockAttendanceStore{records: make(map[string]attendance.Record)}
}

// Upsert stores the value for the slot.
func (m *mockAttendanceStore) Upsert(_ context.Context, memberID string, date time.Time, present bool) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	key := attendance.Key(memberID, date)
	r, ok := m.records[key]
	if !ok {
		r = attendance.Record{ID: fmt.Sprintf("rec-%d", len(m.records)+1), MemberID: memberID, Date: dates.Civil(date)}
	}
	r.Present = present
	m.records[key] = r
	return r, nil
}

// Get returns the slot's record or ErrRecordNotFound.
func (m *mockAttendanceStore) Get(_ context.Context, memberID string, date time.Time) (attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return attendance.Record{}, m.getErr
	}
	r, ok := m.records[attendance.Key(memberID, date)]
	if !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	return r, nil
}

// ListByMemberIDsAndDateRange filters the stored records.
func (m *mockAttendanceStore) ListByMemberIDsAndDateRange(_ context.Context, ids []string, from, to time.Time) ([]attendance.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bulk++
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []attendance.Record
	for _, r := range m.records {
		if !want[r.MemberID] {
			continue
		}
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListByMemberIDs returns the full history.
func (m *mockAttendanceStore) ListByMemberIDs(ctx context.Context, ids []string) ([]attendance.Record, error) {
	return m.ListByMemberIDsAndDateRange(ctx, ids, time.Time{}, time.Time{})
}

// --- Mock member store ---

type mockMemberStore struct {
	members map[string]domainMember.Member
}

func newMockMemberStore(ms ...domainMember.Member) *mockMemberStore {
	s := &mockMemberStore{members: make(map[string]domainMember.Member)}
	for _, m := range ms {
		s.members[m.ID] = m
	}
	return s
}

// GetByID returns the member or ErrNotFound.
func (m *mockMemberStore) GetByID(_ context.Context, id string) (domainMember.Member, error) {
	v, ok := m.members[id]
	if !ok {
		return domainMember.Member{}, domainMember.ErrNotFound
	}
	return v, nil
}

// List applies the birth window and pin filters.
func (m *mockMemberStore) List(_ context.Context, f member.ListFilter) ([]domainMember.Member, error) {
	var out []domainMember.Member
	for _, v := range m.members {
		if !f.BornFrom.IsZero() && v.BirthDate.Before(f.BornFrom) {
			continue
		}
		if !f.BornTo.IsZero() && v.BirthDate.After(f.BornTo) {
			continue
		}
		if f.CohortID != "" && v.CohortID != f.CohortID {
			continue
		}
		if f.Unpinned && v.CohortID != "" {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// --- Mock transition store ---

type mockTransitionStore struct {
	members *mockMemberStore
	applied []transition.Transition
}

// Apply pins the member in the member mock and logs the transition.
func (m *mockTransitionStore) Apply(_ context.Context, t transition.Transition) error {
	v, ok := m.members.members[t.MemberID]
	if !ok {
		return domainMember.ErrNotFound
	}
	v.CohortID = t.ToCohortID
	m.members.members[t.MemberID] = v
	m.applied = append(m.applied, t)
	return nil
}

// --- Authorizer, sender, recorders ---

type staticAuthorizer map[string]string

func (a staticAuthorizer) Verify(cohortID, secret string) bool {
	want, ok := a[cohortID]
	return ok && secret != "" && want == secret
}

type mockSender struct {
	sent []email.Message
	err  error
}

func (s *mockSender) Send(_ context.Context, msg email.Message) (email.Receipt, error) {
	if s.err != nil {
		return email.Receipt{}, s.err
	}
	s.sent = append(s.sent, msg)
	return email.Receipt{MessageID: "msg-1", SentAt: time.Now()}, nil
}

type countingRecorder struct {
	mu          sync.Mutex
	presence    int
	transitions int
	reports     int
}

func (r *countingRecorder) PresenceWritten(string, bool) {
	r.mu.Lock()
	r.presence++
	r.mu.Unlock()
}

func (r *countingRecorder) TransitionConfirmed(string, string) { r.transitions++ }

func (r *countingRecorder) ReportSent(string, error) { r.reports++ }

// --- Fixtures ---

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedID() string { return "test-id-001" }

func fixedNow() time.Time { return time.Date(2025, 9, 20, 18, 0, 0, 0, time.UTC) }

func testRegistry() *cohort.Registry {
	reg, err := cohort.NewRegistry([]cohort.Profile{
		{ID: "kids", Name: "Kids", Interval: cohort.Interval{Min: 1, Max: 9}},
		{ID: "preteens", Name: "Preteens", Interval: cohort.Interval{Min: 10, Max: 13}, ReportRecipients: []string{"lider@example.org"}},
		{ID: "teens", Name: "Teens", Interval: cohort.Interval{Min: 14, Max: 17}},
		{ID: "adults", Name: "Adults", Interval: cohort.Interval{Min: 18, Max: 99}},
		{ID: "admin", Name: "Admin", Interval: cohort.Interval{Min: 0, Max: 99}, Admin: true},
	})
	if err != nil {
		panic(err)
	}
	return reg
}
