package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/domain/deletion"
	"lifecycle/internal/domain/hold"
	"lifecycle/internal/domain/minimization"
	"lifecycle/internal/domain/notify"
	"lifecycle/internal/domain/policy"
	"lifecycle/internal/domain/retention"
	"lifecycle/internal/domain/scan"
	"lifecycle/internal/domain/schedule"
	"lifecycle/internal/platform/config"
	"lifecycle/internal/platform/crypto"
	"lifecycle/internal/platform/db"
	"lifecycle/internal/platform/email"
	"lifecycle/internal/platform/jobs"
	"lifecycle/internal/platform/metrics"
	auditloghandler "lifecycle/internal/transport/http/handlers/auditlog"
	authnhandler "lifecycle/internal/transport/http/handlers/authn"
	deletionhandler "lifecycle/internal/transport/http/handlers/deletion"
	holdhandler "lifecycle/internal/transport/http/handlers/hold"
	minimizationhandler "lifecycle/internal/transport/http/handlers/minimization"
	policyhandler "lifecycle/internal/transport/http/handlers/policy"
	retentionhandler "lifecycle/internal/transport/http/handlers/retention"
	"lifecycle/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}
	setupLogging(cfg)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		log.Fatalf("encryption key invalid: %v", err)
	}
	if !cryptoSvc.Configured() {
		slog.Warn("no data encryption key configured, archives are stored unsealed")
	}

	m := metrics.New()

	catalog := policy.NewFileCatalog(cfg.PolicyOverridesPath)
	if cfg.WatchPolicyOverrides {
		if err := catalog.Watch(ctx); err != nil {
			slog.Warn("policy overrides watch unavailable", "err", err)
		}
	}

	holds := hold.NewRegistry(hold.NewPGStore(pool))
	scanner := scan.NewScanner(scan.NewPGSource(pool), cfg.StorageTimeout)
	notifier := meteredDispatcher{
		inner:   notify.NewService(notify.NewPGStore(pool), email.New(cfg), cfg.EmailFrom),
		metrics: m,
	}

	logStore := retention.NewPGLogStore(pool)
	executor := retention.NewExecutor(catalog, scanner, retention.NewPGDeleter(pool), notifier, logStore, m)

	auditor := minimization.NewAuditor(catalog, scanner, minimization.NewPGReportStore(pool), schedule.NewPGStore(pool), m)

	deletionSvc := deletion.NewService(
		deletion.NewPGRequestStore(pool),
		deletion.NewPGSubjectStore(pool),
		deletion.NewPGReferenceIndex(pool),
		deletion.NewPGCollaboratorStore(pool),
		deletion.NewPGCredentialStore(pool),
		holds,
		notifier,
		cryptoSvc,
		m,
		cfg.GracePeriodDays,
		cfg.CascadeWorkers,
	)

	auditSvc := audit.New(pool)

	scheduler := jobs.New(pool, cfg, auditor, executor)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("job scheduler failed: %v", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Auth(cfg.AdminJWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Method(http.MethodGet, "/metrics", m.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		authnhandler.NewHandler(cfg.AdminJWTSecret, cfg.AdminEmail, cfg.AdminPasswordHash).RegisterRoutes(r)
		policyhandler.NewHandler(catalog, auditSvc).RegisterRoutes(r)
		holdhandler.NewHandler(holds, auditSvc).RegisterRoutes(r)
		retentionhandler.NewHandler(executor, logStore, auditSvc).RegisterRoutes(r)
		minimizationhandler.NewHandler(auditor, auditSvc).RegisterRoutes(r)
		deletionhandler.NewHandler(deletionSvc, auditSvc).RegisterRoutes(r)
		auditloghandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	slog.Info("lifecycle server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func setupLogging(cfg config.Config) {
	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

// meteredDispatcher counts delivery outcomes around the notification
// service and forwards Withdraw so cancellation cleanup still reaches it.
type meteredDispatcher struct {
	inner   *notify.Service
	metrics *metrics.Metrics
}

func (d meteredDispatcher) Send(ctx context.Context, template, recipient string, payload map[string]any) error {
	err := d.inner.Send(ctx, template, recipient, payload)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	d.metrics.RecordNotification(outcome)
	return err
}

func (d meteredDispatcher) Withdraw(ctx context.Context, recipient, template string) {
	d.inner.Withdraw(ctx, recipient, template)
}
