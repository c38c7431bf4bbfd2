package notify

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

func (s *PGStore) Insert(ctx context.Context, userID, recipient, template, subject, body string) error {
	var user any
	if userID != "" {
		user = userID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_id, recipient, template, subject, body)
    VALUES ($1,$2,$3,$4,$5)
  `, user, recipient, template, subject, body)
	return err
}

func (s *PGStore) DeleteByTemplate(ctx context.Context, recipient, template string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM notifications
    WHERE recipient = $1 AND template = $2
  `, recipient, template)
	return err
}
