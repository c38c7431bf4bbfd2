package deletion

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCredentialStore is the identity-provider boundary: it removes the
// subject's login credential. Deleting an absent credential succeeds, which
// keeps a resumed execution idempotent.
type PGCredentialStore struct {
	DB *pgxpool.Pool
}

func NewPGCredentialStore(db *pgxpool.Pool) *PGCredentialStore {
	return &PGCredentialStore{DB: db}
}

func (s *PGCredentialStore) DeleteCredential(ctx context.Context, subjectID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, subjectID)
	return err
}
