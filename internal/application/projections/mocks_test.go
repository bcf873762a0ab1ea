package projections

import (
	"context"
	"errors"
	"sync"
	"time"

	"roster/internal/adapters/storage/member"
	domainAttendance "roster/internal/domain/attendance"
	"roster/internal/domain/cohort"
	domainMember "roster/internal/domain/member"
)

// mockMemberStore filters an in-memory member list like the SQL store.
type mockMemberStore struct {
	members []domainMember.Member
	err     error
}

func (m *mockMemberStore) List(_ context.Context, f member.ListFilter) ([]domainMember.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
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

// mockAttendanceStore serves fixed records and counts bulk reads.
type mockAttendanceStore struct {
	mu      sync.Mutex
	records []domainAttendance.Record
	bulk    int
}

func (m *mockAttendanceStore) add(memberID string, d time.Time, present bool) {
	m.records = append(m.records, domainAttendance.Record{MemberID: memberID, Date: d, Present: present})
}

func (m *mockAttendanceStore) Get(_ context.Context, memberID string, d time.Time) (domainAttendance.Record, error) {
	for _, r := range m.records {
		if r.MemberID == memberID && r.Date.Equal(d) {
			return r, nil
		}
	}
	return domainAttendance.Record{}, domainAttendance.ErrRecordNotFound
}

func (m *mockAttendanceStore) ListByMemberIDsAndDateRange(_ context.Context, ids []string, from, to time.Time) ([]domainAttendance.Record, error) {
	m.mu.Lock()
	m.bulk++
	m.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []domainAttendance.Record
	for _, r := range m.records {
		if !want[r.MemberID] {
			continue
		}
		if (!from.IsZero() && r.Date.Before(from)) || (!to.IsZero() && r.Date.After(to)) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockAttendanceStore) ListByMemberIDs(ctx context.Context, ids []string) ([]domainAttendance.Record, error) {
	return m.ListByMemberIDsAndDateRange(ctx, ids, time.Time{}, time.Time{})
}

var errStore = errors.New("store unavailable")

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testRegistry() *cohort.Registry {
	reg, err := cohort.NewRegistry([]cohort.Profile{
		{ID: "kids", Name: "Kids", Interval: cohort.Interval{Min: 1, Max: 9}},
		{ID: "preteens", Name: "Preteens", Interval: cohort.Interval{Min: 10, Max: 13}},
		{ID: "teens", Name: "Teens", Interval: cohort.Interval{Min: 14, Max: 17}},
		{ID: "adults", Name: "Adults", Interval: cohort.Interval{Min: 18, Max: 99}, ShowPathLevels: true},
		{ID: "admin", Name: "Admin", Interval: cohort.Interval{Min: 0, Max: 99}, Admin: true},
	})
	if err != nil {
		panic(err)
	}
	return reg
}

// today is the reference date for every projection test.
var today = date(2025, 6, 15)

// preteenFixture has two preteens by age, one pinned preteen who is now 14,
// one teen by age, and a 12-year-old pinned to kids.
func preteenFixture() *mockMemberStore {
	return &mockMemberStore{members: []domainMember.Member{
		{ID: "m2", Name: "Beto", BirthDate: date(2012, 6, 15)},
		{ID: "m1", Name: "Ana", BirthDate: date(2014, 6, 16), PathLevel: "Consolidado"},
		{ID: "m3", Name: "Caro", BirthDate: date(2011, 6, 10), CohortID: "preteens"},
		{ID: "m4", Name: "Dani", BirthDate: date(2010, 1, 1)},
		{ID: "m5", Name: "Eli", BirthDate: date(2013, 3, 3), CohortID: "kids"},
	}}
}
