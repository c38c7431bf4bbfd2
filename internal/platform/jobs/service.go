package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"lifecycle/internal/domain/minimization"
	"lifecycle/internal/domain/retention"
	"lifecycle/internal/platform/config"
)

const (
	JobMinimizationAudit = "minimization_audit"
	JobRetentionCleanup  = "retention_cleanup"
)

// Service runs the recurring audits and cleanups. Cron entries enqueue onto
// a buffered queue drained by a single worker, so overlapping triggers
// serialize instead of piling up; every run lands in job_runs.
type Service struct {
	DB       *pgxpool.Pool
	Cfg      config.Config
	Auditor  *minimization.Auditor
	Executor *retention.Executor

	cron  *cron.Cron
	queue chan job
	log   *slog.Logger
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config, auditor *minimization.Auditor, executor *retention.Executor) *Service {
	return &Service{
		DB:       db,
		Cfg:      cfg,
		Auditor:  auditor,
		Executor: executor,
		cron:     cron.New(),
		queue:    make(chan job, 16),
		log:      slog.Default().With("component", "jobs"),
	}
}

func (s *Service) Start(ctx context.Context) error {
	go s.worker(ctx)

	if s.Cfg.AuditCronSpec != "" {
		if _, err := s.cron.AddFunc(s.Cfg.AuditCronSpec, func() {
			s.Enqueue(JobMinimizationAudit, func(ctx context.Context) (any, error) {
				return s.Auditor.RunAudit(ctx, minimization.Options{})
			})
		}); err != nil {
			return err
		}
	}
	if s.Cfg.CleanupCronSpec != "" {
		if _, err := s.cron.AddFunc(s.Cfg.CleanupCronSpec, func() {
			s.Enqueue(JobRetentionCleanup, func(ctx context.Context) (any, error) {
				return s.Executor.Execute(ctx, retention.CleanupOptions{DryRun: s.Cfg.CleanupDryRun})
			})
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.log.Info("job scheduler started",
		"auditCron", s.Cfg.AuditCronSpec,
		"cleanupCron", s.Cfg.CleanupCronSpec,
		"cleanupDryRun", s.Cfg.CleanupDryRun,
	)

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
	}()
	return nil
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		s.log.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				s.log.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		s.log.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		s.log.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			s.log.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}
