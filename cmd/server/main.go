package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster/internal/adapters/email"
	web "roster/internal/adapters/http"
	"roster/internal/adapters/lock"
	"roster/internal/adapters/metrics"
	"roster/internal/adapters/storage"
	attendanceStore "roster/internal/adapters/storage/attendance"
	memberStore "roster/internal/adapters/storage/member"
	transitionStore "roster/internal/adapters/storage/transition"
	"roster/internal/config"
	"roster/internal/domain/cohort"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg)

	// A registry that fails validation must never be served.
	reg, cohortCfg, err := cohort.Load(cfg.ProfilesFile)
	if err != nil {
		fatal("failed to load cohort profiles", err)
	}
	slog.Info("startup_event", "event", "profiles_loaded", "cohorts", len(reg.Cohorts()), "file", cfg.ProfilesFile)

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.DBDialect, cfg.DBDSN)
	if err != nil {
		fatal("failed to open database", err)
	}
	defer db.Close()

	m := metrics.New()
	timedDB := storage.NewTimedDB(db, cfg.DBDialect, m, cfg.SlowQuery)

	stores := &web.Stores{
		MemberStore:     memberStore.NewSQLStore(timedDB),
		AttendanceStore: attendanceStore.NewSQLStore(timedDB),
		TransitionStore: transitionStore.NewSQLStore(timedDB),
	}

	// Per-slot presence lock: Redis when several replicas share the database.
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		client, err := lock.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, 0)
		if err != nil {
			fatal("failed to reach redis", err)
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, 0, 0)
		slog.Info("startup_event", "event", "locker_configured", "backend", "redis", "addr", cfg.RedisAddr)
	}

	var sender email.Sender = email.NewNoopSender()
	if cfg.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
		slog.Info("startup_event", "event", "email_configured", "provider", "resend")
	} else if cfg.Production() {
		slog.Warn("startup_event", "event", "email_disabled", "detail", "ROSTER_RESEND_API_KEY is not set; monthly reports are not delivered")
	}

	handler := web.NewMux(stores, &web.Services{
		Registry:   reg,
		PathStages: cohortCfg.PathStages,
		Authorizer: cohort.NewPINVerifier(reg),
		Locker:     locker,
		Sender:     sender,
		Metrics:    m,
		Location:   cfg.Location,
		DB:         timedDB,
	}, web.Options{
		CSRFKey:       cfg.CSRFKey,
		SecureCookies: cfg.Production(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("startup_event", "event", "listening", "version", version, "addr", cfg.Addr, "env", cfg.Env, "db", string(cfg.DBDialect), "timezone", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown_event", "event", "shutdown_failed", "error", err.Error())
	}
	slog.Info("shutdown_event", "event", "stopped")
}

// setupLogging installs the default slog logger: JSON in production, text otherwise.
func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Production() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err.Error())
	os.Exit(1)
}
