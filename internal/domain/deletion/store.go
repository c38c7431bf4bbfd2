package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGRequestStore struct {
	DB *pgxpool.Pool
}

func NewPGRequestStore(db *pgxpool.Pool) *PGRequestStore {
	return &PGRequestStore{DB: db}
}

func (s *PGRequestStore) Insert(ctx context.Context, req DeletionRequest) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO deletion_requests (
      id, subject_id, requested_at, status, scheduled_deletion_date,
      immediate, keep_billing_data, reason
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
  `, req.ID, req.SubjectID, req.RequestedAt, req.Status, req.ScheduledDeletionDate,
		req.Immediate, req.KeepBillingData, req.Reason)
	return err
}

func (s *PGRequestStore) Get(ctx context.Context, requestID string) (DeletionRequest, error) {
	var req DeletionRequest
	err := s.DB.QueryRow(ctx, `
    SELECT id, subject_id, requested_at, status, scheduled_deletion_date,
           immediate, keep_billing_data, COALESCE(reason, ''),
           subject_data_deleted, collaborators_notified, cascade_completed,
           protected_data_archived, credential_deleted,
           completed_at, COALESCE(error, '')
    FROM deletion_requests
    WHERE id = $1
  `, requestID).Scan(
		&req.ID, &req.SubjectID, &req.RequestedAt, &req.Status, &req.ScheduledDeletionDate,
		&req.Immediate, &req.KeepBillingData, &req.Reason,
		&req.Steps.SubjectDataDeleted, &req.Steps.CollaboratorsNotified, &req.Steps.CascadeCompleted,
		&req.Steps.ProtectedDataArchived, &req.Steps.CredentialDeleted,
		&req.CompletedAt, &req.Error,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeletionRequest{}, ErrRequestNotFound
	}
	if err != nil {
		return DeletionRequest{}, err
	}
	return req, nil
}

func (s *PGRequestStore) PendingForSubject(ctx context.Context, subjectID string) (DeletionRequest, bool, error) {
	var requestID string
	err := s.DB.QueryRow(ctx, `
    SELECT id
    FROM deletion_requests
    WHERE subject_id = $1 AND status = $2
    ORDER BY requested_at DESC
    LIMIT 1
  `, subjectID, StatusPending).Scan(&requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeletionRequest{}, false, nil
	}
	if err != nil {
		return DeletionRequest{}, false, err
	}
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return DeletionRequest{}, false, err
	}
	return req, true, nil
}

func (s *PGRequestStore) SetStatus(ctx context.Context, requestID, status, errMsg string, completedAt *time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE deletion_requests
    SET status = $1, error = NULLIF($2, ''), completed_at = $3
    WHERE id = $4
  `, status, errMsg, completedAt, requestID)
	return err
}

func (s *PGRequestStore) SetStep(ctx context.Context, requestID, step string, done bool) error {
	switch step {
	case StepSubjectData, StepCollaborators, StepCascade, StepArchive, StepCredential:
	default:
		return fmt.Errorf("unknown step %q", step)
	}
	query := fmt.Sprintf(`UPDATE deletion_requests SET %s = $1 WHERE id = $2`, step)
	_, err := s.DB.Exec(ctx, query, done, requestID)
	return err
}
