package web

import (
	"time"

	"roster/internal/application/listutil"
	"roster/internal/application/projections"
	"roster/internal/domain/attendance"
	"roster/internal/domain/cohort"
	"roster/internal/domain/dates"
	"roster/internal/domain/stats"
	"roster/internal/domain/transition"
)

// JSON shapes for the API. Civil dates travel as YYYY-MM-DD strings.

type cohortView struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	DisplayName         string `json:"display_name"`
	Subtitle            string `json:"subtitle"`
	MinAge              int    `json:"min_age"`
	MaxAge              int    `json:"max_age"`
	MemberLabel         string `json:"member_label"`
	LeaderLabel         string `json:"leader_label"`
	SystemName          string `json:"system_name"`
	ShowPathLevels      bool   `json:"show_path_levels"`
	ConfirmsTransitions bool   `json:"confirms_transitions"`
}

func toCohortView(p cohort.Profile) cohortView {
	return cohortView{
		ID:                  p.ID,
		Name:                p.Name,
		DisplayName:         p.DisplayName,
		Subtitle:            p.Subtitle,
		MinAge:              p.Interval.Min,
		MaxAge:              p.Interval.Max,
		MemberLabel:         p.MemberLabel,
		LeaderLabel:         p.LeaderLabel,
		SystemName:          p.SystemName,
		ShowPathLevels:      p.ShowPathLevels,
		ConfirmsTransitions: p.PINHash != "",
	}
}

type memberView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PreferredName string `json:"preferred_name,omitempty"`
	BirthDate     string `json:"birth_date"`
	Age           int    `json:"age"`
	PathLevel     string `json:"path_level,omitempty"`
	Pinned        bool   `json:"pinned"`
}

type rosterView struct {
	Cohort  string            `json:"cohort"`
	Date    string            `json:"date"`
	Members []memberView      `json:"members"`
	Page    listutil.PageInfo `json:"page"`
}

func toRosterView(res projections.ListCohortRosterResult) rosterView {
	v := rosterView{Cohort: res.Cohort.ID, Date: dates.Format(res.Today), Members: []memberView{}, Page: res.PageInfo}
	for _, e := range res.Entries {
		v.Members = append(v.Members, memberView{
			ID:            e.Member.ID,
			Name:          e.Member.Name,
			PreferredName: e.Member.PreferredName,
			BirthDate:     dates.Format(e.Member.BirthDate),
			Age:           e.Age,
			PathLevel:     e.Member.PathLevel,
			Pinned:        e.Pinned,
		})
	}
	return v
}

type presenceView struct {
	MemberID  string    `json:"member_id"`
	Date      string    `json:"date"`
	Present   bool      `json:"present"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toPresenceView(r attendance.Record) presenceView {
	return presenceView{MemberID: r.MemberID, Date: dates.Format(r.Date), Present: r.Present, UpdatedAt: r.UpdatedAt}
}

type snapshotView struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Percentage int `json:"percentage"`
}

func toSnapshotView(s stats.Snapshot) snapshotView {
	return snapshotView(s)
}

type dayRowView struct {
	MemberID   string `json:"member_id"`
	Name       string `json:"name"`
	PathLevel  string `json:"path_level,omitempty"`
	Present    bool   `json:"present"`
	Registered bool   `json:"registered"`
}

type dayDetailView struct {
	Cohort  string       `json:"cohort"`
	Date    string       `json:"date"`
	Members []dayRowView `json:"members"`
	Summary snapshotView `json:"summary"`
}

func toDayDetailView(res projections.GetDayDetailResult) dayDetailView {
	v := dayDetailView{Cohort: res.Cohort.ID, Date: dates.Format(res.Date), Members: []dayRowView{}, Summary: toSnapshotView(res.Snapshot)}
	for _, row := range res.Rows {
		v.Members = append(v.Members, dayRowView(row))
	}
	return v
}

type peakView struct {
	Count int    `json:"count"`
	Date  string `json:"date,omitempty"`
}

type statsView struct {
	Cohort             string       `json:"cohort"`
	Month              string       `json:"month"`
	Today              snapshotView `json:"today"`
	MonthlyAverage     int          `json:"monthly_average"`
	MonthlyMaximum     peakView     `json:"monthly_maximum"`
	HistoricalMaximum  peakView     `json:"historical_maximum"`
	DaysWithAttendance int          `json:"days_with_attendance"`
}

func toStatsView(res projections.GetCohortStatsResult) statsView {
	s := res.Summary
	return statsView{
		Cohort:             res.Cohort.ID,
		Month:              s.Month.Format(dates.MonthLayout),
		Today:              toSnapshotView(s.Today),
		MonthlyAverage:     s.MonthlyAverage,
		MonthlyMaximum:     peakView{Count: s.MonthlyMaximum.Count, Date: dates.Format(s.MonthlyMaximum.Date)},
		HistoricalMaximum:  peakView{Count: s.HistoricalMaximum.Count, Date: dates.Format(s.HistoricalMaximum.Date)},
		DaysWithAttendance: s.DaysWithAttendance,
	}
}

type candidateView struct {
	MemberID            string `json:"member_id"`
	Name                string `json:"name"`
	BirthDate           string `json:"birth_date"`
	Age                 int    `json:"age"`
	CurrentCohortID     string `json:"current_cohort_id"`
	SuggestedCohortID   string `json:"suggested_cohort_id"`
	SuggestedCohortName string `json:"suggested_cohort_name"`
}

func toCandidateViews(cs []transition.Candidate) []candidateView {
	out := make([]candidateView, 0, len(cs))
	for _, c := range cs {
		out = append(out, candidateView{
			MemberID:            c.MemberID,
			Name:                c.Name,
			BirthDate:           dates.Format(c.BirthDate),
			Age:                 c.Age,
			CurrentCohortID:     c.CurrentCohortID,
			SuggestedCohortID:   c.SuggestedCohortID,
			SuggestedCohortName: c.SuggestedCohortName,
		})
	}
	return out
}

type transitionView struct {
	ID           string    `json:"id"`
	MemberID     string    `json:"member_id"`
	FromCohortID string    `json:"from_cohort_id"`
	ToCohortID   string    `json:"to_cohort_id"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransitionView(t transition.Transition) transitionView {
	return transitionView{ID: t.ID, MemberID: t.MemberID, FromCohortID: t.FromCohortID, ToCohortID: t.ToCohortID, Reason: t.Reason, CreatedAt: t.CreatedAt}
}

type birthdayView struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	TurnsAge int    `json:"turns_age"`
	InDays   int    `json:"in_days"`
}

type stageView struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type levelsView struct {
	Cohort     string      `json:"cohort"`
	Total      int         `json:"total"`
	Stages     []stageView `json:"stages"`
	Unassigned int         `json:"unassigned"`
}

type overviewCohortView struct {
	Cohort    cohortView   `json:"cohort"`
	Today     snapshotView `json:"today"`
	Birthdays int          `json:"upcoming_birthdays"`
	Pending   int          `json:"pending_transitions"`
}

type overviewView struct {
	Date    string               `json:"date"`
	Cohorts []overviewCohortView `json:"cohorts"`
}
