package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"roster/internal/application/listutil"
	"roster/internal/application/orchestrators"
	"roster/internal/application/projections"
	"roster/internal/application/report"
	"roster/internal/domain/dates"
	"roster/internal/domain/shared"
	"roster/internal/domain/transition"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// writeError maps a domain error kind onto an HTTP status.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transition.ErrNotCandidate), errors.Is(err, shared.ErrConfiguration):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, shared.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, shared.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, shared.ErrUnauthorized):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		internalError(w, err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// today is the current civil date in the configured timezone.
func today() time.Time {
	return dates.Today(timeNow(), services.Location)
}

// dateOrToday parses a YYYY-MM-DD value, defaulting to today when empty.
func dateOrToday(s string) (time.Time, error) {
	if s == "" {
		return today(), nil
	}
	return dates.Parse(s)
}

// monthOrZero parses a YYYY-MM value; empty yields the zero time.
func monthOrZero(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return dates.ParseMonth(s)
}

func rosterDeps() projections.GetCohortRosterDeps {
	return projections.GetCohortRosterDeps{Registry: services.Registry, MemberStore: stores.MemberStore}
}

func presenceDeps() orchestrators.SetPresenceDeps {
	return orchestrators.SetPresenceDeps{
		Registry:        services.Registry,
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
		Locker:          services.Locker,
		Recorder:        services.Metrics,
	}
}

// handleHealth handles GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	if services.DB != nil {
		if err := services.DB.PingContext(r.Context()); err != nil {
			slog.Error("health_check_failed", "error", err.Error())
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListCohorts handles GET /api/cohorts
func handleListCohorts(w http.ResponseWriter, r *http.Request) {
	out := []cohortView{}
	for _, p := range services.Registry.Cohorts() {
		out = append(out, toCohortView(p))
	}
	writeJSON(w, out)
}

// handleOverview handles GET /api/overview
func handleOverview(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetOverview(r.Context(), projections.GetOverviewQuery{Today: today()}, projections.GetOverviewDeps{
		Registry:        services.Registry,
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	v := overviewView{Date: dates.Format(res.Date), Cohorts: []overviewCohortView{}}
	for _, c := range res.Cohorts {
		v.Cohorts = append(v.Cohorts, overviewCohortView{
			Cohort:    toCohortView(c.Cohort),
			Today:     toSnapshotView(c.Today),
			Birthdays: c.Birthdays,
			Pending:   c.Pending,
		})
	}
	writeJSON(w, v)
}

// handleRoster handles GET /api/cohorts/{cohort}/members
func handleRoster(w http.ResponseWriter, r *http.Request) {
	lp := listutil.Parse(r.URL.Query(), projections.RosterSortColumns)
	res, err := projections.QueryListCohortRoster(r.Context(), projections.ListCohortRosterQuery{
		CohortID: r.PathValue("cohort"),
		Today:    today(),
		Params:   lp,
	}, rosterDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toRosterView(res))
}

// handleDayDetail handles GET /api/cohorts/{cohort}/attendance?date=
func handleDayDetail(w http.ResponseWriter, r *http.Request) {
	day, err := dateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := projections.QueryGetDayDetail(r.Context(), projections.GetDayDetailQuery{
		CohortID: r.PathValue("cohort"),
		Date:     day,
		Today:    today(),
	}, projections.GetDayDetailDeps{
		Registry:        services.Registry,
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toDayDetailView(res))
}

type presenceRequest struct {
	MemberID string `json:"member_id"`
	Date     string `json:"date"`
	Present  *bool  `json:"present,omitempty"`
}

// handleSetPresence handles PUT /api/cohorts/{cohort}/attendance
func handleSetPresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Present == nil {
		http.Error(w, "present is required", http.StatusBadRequest)
		return
	}
	day, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteSetPresence(r.Context(), orchestrators.SetPresenceInput{
		CohortID: r.PathValue("cohort"),
		MemberID: req.MemberID,
		Date:     day,
		Present:  *req.Present,
		Today:    today(),
	}, presenceDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toPresenceView(rec))
}

// handleTogglePresence handles POST /api/cohorts/{cohort}/attendance/toggle
func handleTogglePresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if err := strictDecode(r, &req); err != nil || req.Present != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	day, err := dateOrToday(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	rec, err := orchestrators.ExecuteTogglePresence(r.Context(), orchestrators.TogglePresenceInput{
		CohortID: r.PathValue("cohort"),
		MemberID: req.MemberID,
		Date:     day,
		Today:    today(),
	}, presenceDeps())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toPresenceView(rec))
}

// handleStats handles GET /api/cohorts/{cohort}/stats?month=YYYY-MM
func handleStats(w http.ResponseWriter, r *http.Request) {
	month, err := monthOrZero(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := projections.QueryGetCohortStats(r.Context(), projections.GetCohortStatsQuery{
		CohortID: r.PathValue("cohort"),
		Today:    today(),
		Month:    month,
	}, projections.GetCohortStatsDeps{
		Registry:        services.Registry,
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toStatsView(res))
}

// handleTransitions handles GET /api/cohorts/{cohort}/transitions
func handleTransitions(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetTransitionCandidates(r.Context(), projections.GetTransitionCandidatesQuery{
		CohortID: r.PathValue("cohort"),
		Today:    today(),
	}, projections.GetTransitionCandidatesDeps(rosterDeps()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toCandidateViews(res.Candidates))
}

// handleConfirmTransition handles POST /api/cohorts/{cohort}/transitions/confirm
func handleConfirmTransition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberID string `json:"member_id"`
		PIN      string `json:"pin"`
	}
	if err := strictDecode(r, &req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	t, err := orchestrators.ExecuteConfirmTransition(r.Context(), orchestrators.ConfirmTransitionInput{
		CohortID: r.PathValue("cohort"),
		MemberID: req.MemberID,
		Secret:   req.PIN,
		Today:    today(),
	}, orchestrators.ConfirmTransitionDeps{
		Registry:        services.Registry,
		Authorizer:      services.Authorizer,
		MemberStore:     stores.MemberStore,
		TransitionStore: stores.TransitionStore,
		Recorder:        services.Metrics,
		GenerateID:      generateID,
		Now:             timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, toTransitionView(t))
}

// handleMemberTransitions handles GET /api/members/{member}/transitions
func handleMemberTransitions(w http.ResponseWriter, r *http.Request) {
	ts, err := stores.TransitionStore.ListByMemberID(r.Context(), r.PathValue("member"))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transitionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTransitionView(t))
	}
	writeJSON(w, out)
}

// handleBirthdays handles GET /api/cohorts/{cohort}/birthdays?days=
func handleBirthdays(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 366 {
			http.Error(w, "days must be between 0 and 366", http.StatusBadRequest)
			return
		}
		days = n
	}
	res, err := projections.QueryGetUpcomingBirthdays(r.Context(), projections.GetUpcomingBirthdaysQuery{
		CohortID: r.PathValue("cohort"),
		Today:    today(),
		Days:     days,
	}, projections.GetUpcomingBirthdaysDeps(rosterDeps()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]birthdayView, 0, len(res.Birthdays))
	for _, b := range res.Birthdays {
		out = append(out, birthdayView{MemberID: b.MemberID, Name: b.Name, Date: dates.Format(b.Date), TurnsAge: b.TurnsAge, InDays: b.InDays})
	}
	writeJSON(w, out)
}

// handleLevels handles GET /api/cohorts/{cohort}/levels
func handleLevels(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetPathLevelDistribution(r.Context(), projections.GetPathLevelDistributionQuery{
		CohortID: r.PathValue("cohort"),
		Today:    today(),
	}, projections.GetPathLevelDistributionDeps{
		Registry:    services.Registry,
		MemberStore: stores.MemberStore,
		Stages:      services.PathStages,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	v := levelsView{Cohort: res.Cohort.ID, Total: res.Total, Stages: []stageView{}, Unassigned: res.Unassigned}
	for _, s := range res.Stages {
		v.Stages = append(v.Stages, stageView(s))
	}
	writeJSON(w, v)
}

// handleReport handles GET /api/cohorts/{cohort}/report?month=&format=md
func handleReport(w http.ResponseWriter, r *http.Request) {
	month, err := monthOrZero(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, err)
		return
	}
	rep, err := orchestrators.BuildMonthlyReport(r.Context(), orchestrators.SendMonthlyReportInput{
		CohortID: r.PathValue("cohort"),
		Month:    month,
		Today:    today(),
	}, orchestrators.MonthlyReportDeps{
		Registry:        services.Registry,
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, rep.Markdown)
		return
	}
	body, err := report.RenderHTML(rep.Markdown)
	if err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n%s</body></html>\n",
		html.EscapeString(rep.Subject), body)
}

// handleSendReport handles POST /api/cohorts/{cohort}/report/send
func handleSendReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month string `json:"month"`
	}
	// an empty body sends the previous month
	if err := strictDecode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	month, err := monthOrZero(req.Month)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := orchestrators.ExecuteSendMonthlyReport(r.Context(), orchestrators.SendMonthlyReportInput{
		CohortID: r.PathValue("cohort"),
		Month:    month,
		Today:    today(),
	}, orchestrators.SendMonthlyReportDeps{
		Registry:        services.Registry,
		MemberStore:     stores.MemberStore,
		AttendanceStore: stores.AttendanceStore,
		Sender:          services.Sender,
		Recorder:        services.Metrics,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"message_id": res.Receipt.MessageID,
		"recipients": res.Recipients,
	})
}
