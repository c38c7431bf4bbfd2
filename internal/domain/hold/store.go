package hold

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Insert(ctx context.Context, h LegalHold) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO legal_holds (id, subject_id, reason, created_at, expires_at, active)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, h.ID, h.SubjectID, h.Reason, h.CreatedAt, h.ExpiresAt, h.Active)
	return err
}

func (s *PGStore) Deactivate(ctx context.Context, holdID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE legal_holds
    SET active = false
    WHERE id = $1
  `, holdID)
	return err
}

func (s *PGStore) CountActive(ctx context.Context, subjectID string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM legal_holds
    WHERE subject_id = $1 AND active = true
  `, subjectID).Scan(&n)
	return n, err
}

func (s *PGStore) List(ctx context.Context) ([]LegalHold, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, subject_id, reason, created_at, expires_at, active
    FROM legal_holds
    ORDER BY created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LegalHold
	for rows.Next() {
		var h LegalHold
		if err := rows.Scan(&h.ID, &h.SubjectID, &h.Reason, &h.CreatedAt, &h.ExpiresAt, &h.Active); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
