package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestListCohorts_ExcludesAdmin(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, "GET", "/api/cohorts", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[[]cohortView](t, rr.Body.Bytes())
	if len(got) != 4 || got[0].ID != "kids" || got[3].ID != "adults" {
		t.Errorf("cohorts = %+v", got)
	}
	if !got[1].ConfirmsTransitions || got[2].ConfirmsTransitions {
		t.Errorf("only preteens has a PIN: %+v", got)
	}
}

func TestRoster(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, "GET", "/api/cohorts/preteens/members?sort=age&dir=desc", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	got := decode[rosterView](t, rr.Body.Bytes())
	if got.Date != "2025-06-15" || got.Page.Total != 3 {
		t.Errorf("roster = %+v", got)
	}
	var names []string
	for _, m := range got.Members {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != "Caro,Beto,Ana" {
		t.Errorf("order = %v", names)
	}
	if !got.Members[0].Pinned || got.Members[0].Age != 14 || got.Members[2].BirthDate != "2014-06-16" {
		t.Errorf("members = %+v", got.Members)
	}
}

func TestRoster_Errors(t *testing.T) {
	s := newTestServer(t)
	if rr := s.do(t, "GET", "/api/cohorts/nope/members", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown cohort status = %d, want 404", rr.Code)
	}
	if rr := s.do(t, "GET", "/api/cohorts/admin/members", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("admin cohort status = %d, want 400", rr.Code)
	}
}

func TestSetPresence_IdempotentAndVisibleInDayDetail(t *testing.T) {
	s := newTestServer(t)
	body := `{"member_id":"m1","date":"2025-06-15","present":true}`
	for i := 0; i < 2; i++ {
		rr := s.do(t, "PUT", "/api/cohorts/preteens/attendance", body)
		if rr.Code != http.StatusOK {
			t.Fatalf("PUT #%d status = %d: %s", i+1, rr.Code, rr.Body)
		}
		got := decode[presenceView](t, rr.Body.Bytes())
		if !got.Present || got.Date != "2025-06-15" {
			t.Errorf("PUT #%d = %+v", i+1, got)
		}
	}

	rr := s.do(t, "GET", "/api/cohorts/preteens/attendance?date=2025-06-15", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rr.Code)
	}
	day := decode[dayDetailView](t, rr.Body.Bytes())
	if day.Summary != (snapshotView{Total: 3, Present: 1, Absent: 2, Percentage: 33}) {
		t.Errorf("summary = %+v", day.Summary)
	}
	if len(day.Members) != 3 || day.Members[0].MemberID != "m1" || !day.Members[0].Present || day.Members[1].Registered {
		t.Errorf("rows = %+v", day.Members)
	}
}

func TestSetPresence_BadRequests(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"member_id":`},
		{"unknown field", `{"member_id":"m1","present":true,"extra":1}`},
		{"missing present", `{"member_id":"m1"}`},
		{"bad date", `{"member_id":"m1","date":"15/06/2025","present":true}`},
		{"missing member", `{"present":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := s.do(t, "PUT", "/api/cohorts/preteens/attendance", tt.body); rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestSetPresence_ActingCohortAndMember(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"unknown cohort", "/api/cohorts/no-such-cohort/attendance", `{"member_id":"m1","present":true}`},
		{"member of another cohort", "/api/cohorts/adults/attendance", `{"member_id":"m1","present":true}`},
		{"unknown member", "/api/cohorts/preteens/attendance", `{"member_id":"ghost","present":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := s.do(t, "PUT", tt.target, tt.body); rr.Code != http.StatusNotFound {
				t.Errorf("PUT status = %d, want 404: %s", rr.Code, rr.Body)
			}
			toggle := strings.Replace(tt.body, `,"present":true`, "", 1)
			if rr := s.do(t, "POST", tt.target+"/toggle", toggle); rr.Code != http.StatusNotFound {
				t.Errorf("toggle status = %d, want 404: %s", rr.Code, rr.Body)
			}
		})
	}

	if rr := s.do(t, "PUT", "/api/cohorts/admin/attendance", `{"member_id":"m1","present":true}`); rr.Code != http.StatusBadRequest {
		t.Errorf("admin PUT status = %d, want 400", rr.Code)
	}
	day := decode[dayDetailView](t, s.do(t, "GET", "/api/cohorts/preteens/attendance?date=2025-06-15", "").Body.Bytes())
	for _, row := range day.Members {
		if row.Registered {
			t.Errorf("row %+v registered by a rejected write", row)
		}
	}
	if body := s.do(t, "GET", "/metrics", "").Body.String(); strings.Contains(body, "no-such-cohort") || strings.Contains(body, `roster_presence_writes_total{cohort="adults"`) {
		t.Errorf("rejected writes reached metrics:\n%s", body)
	}
}

func TestTogglePresence_DefaultsToToday(t *testing.T) {
	s := newTestServer(t)
	first := decode[presenceView](t, s.do(t, "POST", "/api/cohorts/teens/attendance/toggle", `{"member_id":"m4"}`).Body.Bytes())
	second := decode[presenceView](t, s.do(t, "POST", "/api/cohorts/teens/attendance/toggle", `{"member_id":"m4"}`).Body.Bytes())
	if !first.Present || second.Present || first.Date != "2025-06-15" {
		t.Errorf("toggles = %+v then %+v", first, second)
	}
	if rr := s.do(t, "POST", "/api/cohorts/teens/attendance/toggle", `{"member_id":"m4","present":true}`); rr.Code != http.StatusBadRequest {
		t.Errorf("toggle with present status = %d, want 400", rr.Code)
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	for _, b := range []string{
		`{"member_id":"m1","date":"2025-06-01","present":true}`,
		`{"member_id":"m2","date":"2025-06-01","present":true}`,
		`{"member_id":"m1","date":"2025-06-08","present":true}`,
		`{"member_id":"m2","date":"2025-05-25","present":true}`,
		`{"member_id":"m3","date":"2025-05-25","present":true}`,
		`{"member_id":"m1","date":"2025-05-25","present":true}`,
	} {
		if rr := s.do(t, "PUT", "/api/cohorts/preteens/attendance", b); rr.Code != http.StatusOK {
			t.Fatalf("seed %s: %d", b, rr.Code)
		}
	}

	got := decode[statsView](t, s.do(t, "GET", "/api/cohorts/preteens/stats", "").Body.Bytes())
	if got.Month != "2025-06" || got.MonthlyAverage != 2 || got.MonthlyMaximum != (peakView{Count: 2, Date: "2025-06-01"}) {
		t.Errorf("june = %+v", got)
	}
	if got.HistoricalMaximum != (peakView{Count: 3, Date: "2025-05-25"}) || got.Today.Total != 3 {
		t.Errorf("june = %+v", got)
	}

	may := decode[statsView](t, s.do(t, "GET", "/api/cohorts/preteens/stats?month=2025-05", "").Body.Bytes())
	if may.MonthlyAverage != 3 || may.DaysWithAttendance != 1 {
		t.Errorf("may = %+v", may)
	}
	if rr := s.do(t, "GET", "/api/cohorts/preteens/stats?month=May", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d", rr.Code)
	}
}

func TestTransitions_ConfirmFlow(t *testing.T) {
	s := newTestServer(t)
	cands := decode[[]candidateView](t, s.do(t, "GET", "/api/cohorts/preteens/transitions", "").Body.Bytes())
	if len(cands) != 1 || cands[0].MemberID != "m3" || cands[0].SuggestedCohortID != "teens" || cands[0].Age != 14 {
		t.Fatalf("candidates = %+v", cands)
	}

	if rr := s.do(t, "POST", "/api/cohorts/preteens/transitions/confirm", `{"member_id":"m3","pin":"0000"}`); rr.Code != http.StatusForbidden {
		t.Errorf("wrong PIN status = %d, want 403", rr.Code)
	}
	if rr := s.do(t, "POST", "/api/cohorts/preteens/transitions/confirm", `{"member_id":"m2","pin":"4321"}`); rr.Code != http.StatusConflict {
		t.Errorf("non-candidate status = %d, want 409", rr.Code)
	}

	rr := s.do(t, "POST", "/api/cohorts/preteens/transitions/confirm", `{"member_id":"m3","pin":"4321"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", rr.Code, rr.Body)
	}
	tr := decode[transitionView](t, rr.Body.Bytes())
	if tr.FromCohortID != "preteens" || tr.ToCohortID != "teens" || tr.ID == "" {
		t.Errorf("transition = %+v", tr)
	}

	if cands := decode[[]candidateView](t, s.do(t, "GET", "/api/cohorts/preteens/transitions", "").Body.Bytes()); len(cands) != 0 {
		t.Errorf("candidates after confirm = %+v", cands)
	}
	teens := decode[rosterView](t, s.do(t, "GET", "/api/cohorts/teens/members", "").Body.Bytes())
	if teens.Page.Total != 2 {
		t.Errorf("teens roster = %+v, want Caro and Dani", teens.Members)
	}
	history := decode[[]transitionView](t, s.do(t, "GET", "/api/members/m3/transitions", "").Body.Bytes())
	if len(history) != 1 || history[0].ID != tr.ID {
		t.Errorf("history = %+v", history)
	}

	// a second confirmation is stale: Caro is no longer in preteens
	if rr := s.do(t, "POST", "/api/cohorts/preteens/transitions/confirm", `{"member_id":"m3","pin":"4321"}`); rr.Code != http.StatusConflict {
		t.Errorf("repeat confirm status = %d, want 409", rr.Code)
	}
}

// TestTransitions_RegisteredMemberTurns14 covers a member who was never
// pinned: on the 14th birthday they stay in preteens as a candidate until the
// move is confirmed.
func TestTransitions_RegisteredMemberTurns14(t *testing.T) {
	s := newTestServer(t)
	timeNow = func() time.Time { return time.Date(2026, 6, 15, 15, 0, 0, 0, time.UTC) }

	cands := decode[[]candidateView](t, s.do(t, "GET", "/api/cohorts/preteens/transitions", "").Body.Bytes())
	var beto *candidateView
	for i := range cands {
		if cands[i].MemberID == "m2" {
			beto = &cands[i]
		}
	}
	if beto == nil || beto.Age != 14 || beto.SuggestedCohortID != "teens" {
		t.Fatalf("candidates = %+v, want Beto aged 14 to teens", cands)
	}
	for _, m := range decode[rosterView](t, s.do(t, "GET", "/api/cohorts/teens/members", "").Body.Bytes()).Members {
		if m.ID == "m2" {
			t.Fatalf("Beto listed in teens before confirmation: %+v", m)
		}
	}

	if rr := s.do(t, "POST", "/api/cohorts/preteens/transitions/confirm", `{"member_id":"m2","pin":"4321"}`); rr.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", rr.Code, rr.Body)
	}
	var moved bool
	for _, m := range decode[rosterView](t, s.do(t, "GET", "/api/cohorts/teens/members", "").Body.Bytes()).Members {
		if m.ID == "m2" {
			moved = m.Pinned
		}
	}
	if !moved {
		t.Error("Beto should be pinned to teens after confirmation")
	}
}

func TestBirthdays(t *testing.T) {
	s := newTestServer(t)
	got := decode[[]birthdayView](t, s.do(t, "GET", "/api/cohorts/preteens/birthdays", "").Body.Bytes())
	if len(got) != 2 || got[0].Name != "Beto" || got[0].InDays != 0 || got[1].Name != "Ana" || got[1].TurnsAge != 11 {
		t.Errorf("birthdays = %+v", got)
	}
	if got := decode[[]birthdayView](t, s.do(t, "GET", "/api/cohorts/preteens/birthdays?days=0", "").Body.Bytes()); len(got) != 2 {
		t.Errorf("days=0 uses the default window, got %+v", got)
	}
	if rr := s.do(t, "GET", "/api/cohorts/preteens/birthdays?days=soon", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad days status = %d", rr.Code)
	}
}

func TestLevels(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, "GET", "/api/cohorts/adults/levels", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	got := decode[levelsView](t, rr.Body.Bytes())
	if got.Total != 1 || got.Stages[0].Count != 1 || got.Stages[0].Percentage != 100 || got.Unassigned != 0 {
		t.Errorf("levels = %+v", got)
	}
	if rr := s.do(t, "GET", "/api/cohorts/kids/levels", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("kids levels status = %d, want 400", rr.Code)
	}
}

func TestReport(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "PUT", "/api/cohorts/preteens/attendance", `{"member_id":"m1","date":"2025-05-04","present":true}`)

	rr := s.do(t, "GET", "/api/cohorts/preteens/report", "")
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("html status = %d, type %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Body.String(), "<table>") || !strings.Contains(rr.Body.String(), "2025-05") {
		t.Errorf("html body = %s", rr.Body)
	}

	rr = s.do(t, "GET", "/api/cohorts/preteens/report?month=2025-06&format=md", "")
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/markdown") || !strings.Contains(rr.Body.String(), "Caro") {
		t.Errorf("markdown = %s", rr.Body)
	}
}

func TestSendReport(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, "POST", "/api/cohorts/preteens/report/send", `{}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body)
	}
	if len(s.sender.sent) != 1 || s.sender.sent[0].To[0] != "lider@example.org" || !strings.Contains(s.sender.sent[0].Subject, "2025-05") {
		t.Errorf("sent = %+v", s.sender.sent)
	}

	if rr := s.do(t, "POST", "/api/cohorts/teens/report/send", `{"month":"2025-05"}`); rr.Code != http.StatusConflict {
		t.Errorf("no recipients status = %d, want 409", rr.Code)
	}
}

func TestOverview(t *testing.T) {
	s := newTestServer(t)
	s.do(t, "POST", "/api/cohorts/teens/attendance/toggle", `{"member_id":"m4"}`)

	got := decode[overviewView](t, s.do(t, "GET", "/api/overview", "").Body.Bytes())
	if got.Date != "2025-06-15" || len(got.Cohorts) != 4 {
		t.Fatalf("overview = %+v", got)
	}
	pre, teens := got.Cohorts[1], got.Cohorts[2]
	if pre.Today.Total != 3 || pre.Birthdays != 2 || pre.Pending != 1 {
		t.Errorf("preteens = %+v", pre)
	}
	if teens.Today != (snapshotView{Total: 1, Present: 1, Absent: 0, Percentage: 100}) {
		t.Errorf("teens = %+v", teens)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	if rr := s.do(t, "GET", "/healthz", ""); rr.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rr.Code)
	}
	s.do(t, "GET", "/api/cohorts", "")
	rr := s.do(t, "GET", "/metrics", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `roster_api_requests_total{method="GET",route="GET /api/cohorts",status="200"} 1`) {
		t.Errorf("metrics = %s", rr.Body)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t)
	rr := s.do(t, "GET", "/api/cohorts", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("headers = %v", rr.Header())
	}
}
