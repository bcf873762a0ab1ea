package web

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"roster/internal/adapters/email"
	"roster/internal/adapters/http/middleware"
	"roster/internal/adapters/lock"
	"roster/internal/adapters/metrics"
	attendanceStore "roster/internal/adapters/storage/attendance"
	memberStore "roster/internal/adapters/storage/member"
	transitionStore "roster/internal/adapters/storage/transition"
	"roster/internal/application/orchestrators"
	"roster/internal/domain/cohort"
)

// Stores holds all storage dependencies.
type Stores struct {
	MemberStore     memberStore.Store
	AttendanceStore attendanceStore.Store
	TransitionStore transitionStore.Store
}

// Pinger reports database reachability for the health check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Services holds the non-storage collaborators.
type Services struct {
	Registry   *cohort.Registry
	PathStages []cohort.PathStage
	Authorizer orchestrators.Authorizer
	Locker     lock.Locker
	Sender     email.Sender
	Metrics    *metrics.Metrics
	Location   *time.Location // civil timezone of "today"
	DB         Pinger         // optional
}

// Options configures the middleware chain.
type Options struct {
	CSRFKey        []byte // 32 bytes; nil generates a per-process key
	SecureCookies  bool
	TrustedOrigins []string
	SlowRequest    time.Duration
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global services instance (set by NewMux)
var services *Services

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// NewMux wires HTTP handlers for the app.
// PRE: every Stores field and svc.Registry, Authorizer, Locker, Sender and Metrics are set
func NewMux(s *Stores, svc *Services, opts Options) http.Handler {
	stores = s
	services = svc
	if services.Location == nil {
		services.Location = time.UTC
	}

	mux := http.NewServeMux()
	registerRoutes(mux)

	csrfKey := opts.CSRFKey
	if csrfKey == nil {
		csrfKey = make([]byte, 32)
		if _, err := rand.Read(csrfKey); err != nil {
			panic("failed to generate CSRF key: " + err.Error())
		}
		slog.Warn("csrf_key_generated", "detail", "using a per-process CSRF key; set ROSTER_CSRF_KEY to keep tokens across restarts")
	}

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(csrfKey, opts.SecureCookies, opts.TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.Timing(svc.Metrics, opts.SlowRequest),
	)
}

// registerRoutes maps every endpoint onto mux. Every cohort-scoped route names
// the acting cohort in its path.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.Handle("GET /metrics", services.Metrics.Handler())

	mux.HandleFunc("GET /api/cohorts", handleListCohorts)
	mux.HandleFunc("GET /api/overview", handleOverview)
	mux.HandleFunc("GET /api/cohorts/{cohort}/members", handleRoster)
	mux.HandleFunc("GET /api/cohorts/{cohort}/attendance", handleDayDetail)
	mux.HandleFunc("PUT /api/cohorts/{cohort}/attendance", handleSetPresence)
	mux.HandleFunc("POST /api/cohorts/{cohort}/attendance/toggle", handleTogglePresence)
	mux.HandleFunc("GET /api/cohorts/{cohort}/stats", handleStats)
	mux.HandleFunc("GET /api/cohorts/{cohort}/transitions", handleTransitions)
	mux.HandleFunc("POST /api/cohorts/{cohort}/transitions/confirm", handleConfirmTransition)
	mux.HandleFunc("GET /api/cohorts/{cohort}/birthdays", handleBirthdays)
	mux.HandleFunc("GET /api/cohorts/{cohort}/levels", handleLevels)
	mux.HandleFunc("GET /api/cohorts/{cohort}/report", handleReport)
	mux.HandleFunc("POST /api/cohorts/{cohort}/report/send", handleSendReport)
	mux.HandleFunc("GET /api/members/{member}/transitions", handleMemberTransitions)
}
