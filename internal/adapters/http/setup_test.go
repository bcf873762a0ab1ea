package web

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"roster/internal/adapters/email"
	"roster/internal/adapters/lock"
	"roster/internal/adapters/metrics"
	"roster/internal/adapters/storage"
	attendanceStore "roster/internal/adapters/storage/attendance"
	memberStore "roster/internal/adapters/storage/member"
	transitionStore "roster/internal/adapters/storage/transition"
	"roster/internal/domain/cohort"
	domainMember "roster/internal/domain/member"
)

const testPIN = "4321"

// pinHash is computed once; bcrypt at cost 12 is slow.
var pinHash = sync.OnceValue(func() string {
	h, err := cohort.HashPIN(testPIN)
	if err != nil {
		panic(err)
	}
	return h
})

// fixedNow is 2025-06-15 in every zone the tests use.
var fixedNow = time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []email.Message
}

func (s *recordingSender) Send(_ context.Context, msg email.Message) (email.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return email.Receipt{MessageID: "msg-1", SentAt: fixedNow}, nil
}

type testServer struct {
	handler http.Handler
	sender  *recordingSender
}

// newTestServer wires the full mux over an in-memory SQLite database seeded with:
// Ana (10, turns 11 tomorrow), Beto (turns 13 today), Caro (14, pinned to
// preteens), Dani (15), Eli (12, pinned to kids) and Fer (35, adult), all
// registered on fixedNow.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tdb := storage.NewTimedDB(db, storage.DialectSQLite, nil, 0)

	reg, err := cohort.NewRegistry([]cohort.Profile{
		{ID: "kids", Name: "Kids", Interval: cohort.Interval{Min: 1, Max: 9}},
		{ID: "preteens", Name: "Preteens", Interval: cohort.Interval{Min: 10, Max: 13}, PINHash: pinHash(), ReportRecipients: []string{"lider@example.org"}},
		{ID: "teens", Name: "Teens", Interval: cohort.Interval{Min: 14, Max: 17}},
		{ID: "adults", Name: "Adults", Interval: cohort.Interval{Min: 18, Max: 99}, ShowPathLevels: true},
		{ID: "admin", Name: "Admin", Interval: cohort.Interval{Min: 0, Max: 99}, Admin: true},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	members := memberStore.NewSQLStore(tdb)
	for _, m := range []domainMember.Member{
		{ID: "m1", Name: "Ana", BirthDate: date(2014, 6, 16)},
		{ID: "m2", Name: "Beto", BirthDate: date(2012, 6, 15)},
		{ID: "m3", Name: "Caro", BirthDate: date(2011, 6, 10), CohortID: "preteens"},
		{ID: "m4", Name: "Dani", BirthDate: date(2010, 1, 1)},
		{ID: "m5", Name: "Eli", BirthDate: date(2013, 3, 3), CohortID: "kids"},
		{ID: "m6", Name: "Fer", BirthDate: date(1990, 5, 5), PathLevel: "Consolidado"},
	} {
		m.CreatedAt = fixedNow
		if err := members.Save(ctx, m); err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}

	timeNow = func() time.Time { return fixedNow }
	t.Cleanup(func() { timeNow = time.Now })
	RateLimitPerSecond = 10000

	sender := &recordingSender{}
	h := NewMux(&Stores{
		MemberStore:     members,
		AttendanceStore: attendanceStore.NewSQLStore(tdb),
		TransitionStore: transitionStore.NewSQLStore(tdb),
	}, &Services{
		Registry:   reg,
		PathStages: cohort.DefaultConfig().PathStages,
		Authorizer: cohort.NewPINVerifier(reg),
		Locker:     lock.NewKeyedMutex(),
		Sender:     sender,
		Metrics:    metrics.New(),
		DB:         tdb,
	}, Options{CSRFKey: bytes.Repeat([]byte("k"), 32)})
	return &testServer{handler: h, sender: sender}
}

// do issues a request; a non-empty body is sent as JSON.
func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}
