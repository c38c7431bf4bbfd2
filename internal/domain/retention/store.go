package retention

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGLogStore struct {
	DB *pgxpool.Pool
}

func NewPGLogStore(db *pgxpool.Pool) *PGLogStore {
	return &PGLogStore{DB: db}
}

func (s *PGLogStore) Append(ctx context.Context, entry CleanupLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO cleanup_logs (id, dry_run, deleted_count, notified_count, failed_count, details_json, executed_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, entry.ID, entry.DryRun, entry.Deleted, entry.Notified, entry.Failed, detailsJSON, entry.ExecutedAt)
	return err
}

func (s *PGLogStore) List(ctx context.Context, limit int) ([]CleanupLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, dry_run, deleted_count, notified_count, failed_count, details_json, executed_at
    FROM cleanup_logs
    ORDER BY executed_at DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CleanupLog
	for rows.Next() {
		var entry CleanupLog
		var detailsJSON []byte
		if err := rows.Scan(&entry.ID, &entry.DryRun, &entry.Deleted, &entry.Notified, &entry.Failed, &detailsJSON, &entry.ExecutedAt); err != nil {
			return nil, err
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, err
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
