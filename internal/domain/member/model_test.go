package member_test

import (
	"errors"
	"testing"
	"time"

	"roster/internal/domain/cohort"
	"roster/internal/domain/member"
	"roster/internal/domain/shared"
)

var birth = time.Date(2012, 5, 10, 0, 0, 0, 0, time.UTC)

// TestMember_Validate tests validation of Member.
func TestMember_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       member.Member
		wantErr bool
	}{
		{name: "valid", m: member.Member{ID: "m1", Name: "Ana", BirthDate: birth}},
		{name: "empty id", m: member.Member{Name: "Ana", BirthDate: birth}, wantErr: true},
		{name: "whitespace name", m: member.Member{ID: "m1", Name: "  ", BirthDate: birth}, wantErr: true},
		{name: "no birth date", m: member.Member{ID: "m1", Name: "Ana"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Member.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("Member.Validate() error kind = %v, want ErrInvalidInput", err)
			}
		})
	}
}

// TestMember_DisplayName verifies the preferred-name fallback.
func TestMember_DisplayName(t *testing.T) {
	m := member.Member{Name: "Ana María"}
	if m.DisplayName() != "Ana María" {
		t.Errorf("DisplayName = %q", m.DisplayName())
	}
	m.PreferredName = "Anita"
	if m.DisplayName() != "Anita" {
		t.Errorf("DisplayName = %q, want Anita", m.DisplayName())
	}
}

// TestMember_EffectiveCohort verifies pinned and age-derived membership.
func TestMember_EffectiveCohort(t *testing.T) {
	reg, err := cohort.NewRegistry([]cohort.Profile{
		{ID: "kids", Name: "Kids", Interval: cohort.Interval{Min: 1, Max: 9}},
		{ID: "preteens", Name: "Preteens", Interval: cohort.Interval{Min: 10, Max: 13}},
		{ID: "teens", Name: "Teens", Interval: cohort.Interval{Min: 14, Max: 17}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	asOf := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) // age 13

	m := member.Member{ID: "m1", Name: "Ana", BirthDate: birth}
	got, err := m.EffectiveCohort(reg, asOf)
	if err != nil || got != "preteens" {
		t.Fatalf("EffectiveCohort = %q, %v; want preteens", got, err)
	}

	if err := m.PinTo("kids"); err != nil {
		t.Fatalf("PinTo: %v", err)
	}
	if got, _ := m.EffectiveCohort(reg, asOf); got != "kids" {
		t.Errorf("pinned EffectiveCohort = %q, want kids", got)
	}
	if err := m.PinTo("kids"); !errors.Is(err, member.ErrAlreadyThere) {
		t.Errorf("PinTo(same) err = %v, want ErrAlreadyThere", err)
	}

	old := member.Member{ID: "m2", Name: "Old", BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := old.EffectiveCohort(reg, asOf); !errors.Is(err, cohort.ErrNoCohort) {
		t.Errorf("EffectiveCohort outside bands err = %v, want ErrNoCohort", err)
	}
}

// TestMember_EffectiveCohort_KeptAfterBirthday verifies an unpinned member
// stays in the cohort they were registered into after outgrowing it.
func TestMember_EffectiveCohort_KeptAfterBirthday(t *testing.T) {
	reg, err := cohort.NewRegistry([]cohort.Profile{
		{ID: "kids", Name: "Kids", Interval: cohort.Interval{Min: 1, Max: 9}},
		{ID: "preteens", Name: "Preteens", Interval: cohort.Interval{Min: 10, Max: 13}},
		{ID: "teens", Name: "Teens", Interval: cohort.Interval{Min: 14, Max: 17}},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	registered := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC) // age 13
	m := member.Member{ID: "m1", Name: "Ana", BirthDate: birth, CreatedAt: registered}

	tests := []struct {
		name string
		asOf time.Time
		want string
	}{
		{name: "registration day", asOf: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), want: "preteens"},
		{name: "after the 14th birthday", asOf: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), want: "preteens"},
		{name: "before registration", asOf: time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC), want: "preteens"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.EffectiveCohort(reg, tt.asOf)
			if err != nil || got != tt.want {
				t.Errorf("EffectiveCohort(%s) = %q, %v; want %q", tt.asOf.Format("2006-01-02"), got, err, tt.want)
			}
		})
	}

	// registered as a baby, outside every band: assignment follows the current age
	baby := member.Member{ID: "m2", Name: "Bebe", BirthDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}
	if got, err := baby.EffectiveCohort(reg, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil || got != "kids" {
		t.Errorf("baby EffectiveCohort = %q, %v; want kids", got, err)
	}

	if err := m.PinTo("teens"); err != nil {
		t.Fatalf("PinTo: %v", err)
	}
	if got, _ := m.EffectiveCohort(reg, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)); got != "teens" {
		t.Errorf("pinned EffectiveCohort = %q, want teens", got)
	}
}
