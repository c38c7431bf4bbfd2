package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// NextRun computes the next run timestamp for a recurring job. Unrecognized
// frequencies fall back to weekly. Monthly advances by calendar month, so
// Jan 31 rolls forward the way time.AddDate defines it.
func NextRun(frequency string, from time.Time) time.Time {
	switch frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 7)
	}
}

// Normalize maps unknown frequencies to the weekly default.
func Normalize(frequency string) string {
	switch frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return frequency
	default:
		return FrequencyWeekly
	}
}

type Record struct {
	ID        string    `json:"id"`
	JobType   string    `json:"jobType"`
	Frequency string    `json:"frequency"`
	NextRun   time.Time `json:"nextRun"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store interface {
	Upsert(ctx context.Context, rec Record) error
	Get(ctx context.Context, jobType string) (Record, bool, error)
}

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Upsert(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_schedules (id, job_type, frequency, next_run, updated_at)
    VALUES ($1,$2,$3,$4,now())
    ON CONFLICT (job_type)
    DO UPDATE SET frequency = EXCLUDED.frequency, next_run = EXCLUDED.next_run, updated_at = now()
  `, rec.ID, rec.JobType, rec.Frequency, rec.NextRun)
	return err
}

func (s *PGStore) Get(ctx context.Context, jobType string) (Record, bool, error) {
	var rec Record
	err := s.DB.QueryRow(ctx, `
    SELECT id, job_type, frequency, next_run, updated_at
    FROM audit_schedules
    WHERE job_type = $1
  `, jobType).Scan(&rec.ID, &rec.JobType, &rec.Frequency, &rec.NextRun, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}
