package deletion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSubjectStore mutates the subject-owned side of the record store. The
// profile row is scrubbed in place rather than hard-deleted so billing
// archives and audit history keep a referent.
type PGSubjectStore struct {
	DB *pgxpool.Pool
}

func NewPGSubjectStore(db *pgxpool.Pool) *PGSubjectStore {
	return &PGSubjectStore{DB: db}
}

func (s *PGSubjectStore) GetSubject(ctx context.Context, subjectID string) (Subject, error) {
	var sub Subject
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, COALESCE(display_name, ''), pending_deletion
    FROM users
    WHERE id = $1
  `, subjectID).Scan(&sub.ID, &sub.Email, &sub.Name, &sub.PendingDeletion)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subject{}, ErrSubjectNotFound
	}
	if err != nil {
		return Subject{}, err
	}
	return sub, nil
}

func (s *PGSubjectStore) MarkPendingDeletion(ctx context.Context, subjectID string, scheduled time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET pending_deletion = true, scheduled_deletion_date = $1
    WHERE id = $2
  `, scheduled, subjectID)
	return err
}

func (s *PGSubjectStore) ClearPendingDeletion(ctx context.Context, subjectID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET pending_deletion = false, scheduled_deletion_date = NULL
    WHERE id = $1
  `, subjectID)
	return err
}

func (s *PGSubjectStore) ScrubProfile(ctx context.Context, subjectID, placeholderName, placeholderEmail string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE users
    SET email = $1,
        display_name = $2,
        phone = NULL,
        company = NULL,
        avatar_url = NULL,
        social_links_json = NULL,
        status = 'deleted',
        updated_at = now()
    WHERE id = $3
  `, placeholderEmail, placeholderName, subjectID)
	return err
}

func (s *PGSubjectStore) DeleteOwnedCollections(ctx context.Context, subjectID string) error {
	if _, err := s.DB.Exec(ctx, `DELETE FROM contacts WHERE owner_id = $1`, subjectID); err != nil {
		return err
	}
	_, err := s.DB.Exec(ctx, `DELETE FROM groups WHERE owner_id = $1`, subjectID)
	return err
}

// AnonymizeUsage strips ip and user agent from the subject's page views but
// keeps the rows, so traffic aggregates stay intact.
func (s *PGSubjectStore) AnonymizeUsage(ctx context.Context, subjectID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE page_views
    SET ip = NULL, user_agent = NULL, user_id = NULL
    WHERE user_id = $1
  `, subjectID)
	return err
}

func (s *PGSubjectStore) AnonymizeConsentLogs(ctx context.Context, subjectID, placeholderRef string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE consent_logs
    SET subject_ref = $1, user_id = NULL
    WHERE user_id = $2
  `, placeholderRef, subjectID)
	return err
}

func (s *PGSubjectStore) DeletePrivacyRequests(ctx context.Context, subjectID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM privacy_requests
    WHERE user_id = $1 AND request_type <> 'deletion'
  `, subjectID)
	return err
}

func (s *PGSubjectStore) BillingHistory(ctx context.Context, subjectID string) ([]BillingRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, plan, amount_cents, currency, period_end, created_at
    FROM billing_records
    WHERE user_id = $1
    ORDER BY created_at
  `, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BillingRecord
	for rows.Next() {
		var rec BillingRecord
		if err := rows.Scan(&rec.ID, &rec.Plan, &rec.AmountCts, &rec.Currency, &rec.PeriodEnd, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PGSubjectStore) ArchiveBilling(ctx context.Context, subjectID string, payload []byte, retainUntil time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO billing_archive (id, subject_id, payload, retain_until, archived_at)
    VALUES ($1,$2,$3,$4,now())
    ON CONFLICT (subject_id) DO NOTHING
  `, uuid.NewString(), subjectID, payload, retainUntil)
	return err
}

func (s *PGSubjectStore) DeleteBillingRecords(ctx context.Context, subjectID string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM billing_records WHERE user_id = $1`, subjectID)
	return err
}
