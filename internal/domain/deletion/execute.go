package deletion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"lifecycle/internal/domain/notify"
)

// billingRetentionYears is the statutory window archived billing data must
// survive after account deletion.
const billingRetentionYears = 10

// Execute runs the five-step erasure saga for a pending request. Steps are
// independent: a failure in one is captured and the rest still run. Each
// completed step is persisted immediately, and a re-run after partial
// failure skips steps already done, so the saga is resumable without
// double-archiving or double-anonymizing.
//
// An active legal hold refuses execution before any store is touched, even
// though RequestDeletion performs the same check.
func (s *Service) Execute(ctx context.Context, subjectID, requestID string) (ExecutionResult, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return ExecutionResult{}, err
	}
	if req.SubjectID != subjectID {
		return ExecutionResult{}, ErrNotRequestOwner
	}
	if req.Status != StatusPending {
		return ExecutionResult{}, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}

	held, err := s.holds.IsActive(ctx, subjectID)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("legal hold check: %w", err)
	}
	if held {
		return ExecutionResult{}, ErrLegalHold
	}

	start := s.now()
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return ExecutionResult{}, err
	}

	// Reference discovery must complete before the subject's own data is
	// removed: the scan matches on the subject's identity and email.
	refs, refErr := s.refs.ReferencingContacts(ctx, subjectID, subject.Email)

	steps := req.Steps
	var failures []error
	if refErr != nil {
		failures = append(failures, fmt.Errorf("reference discovery: %w", refErr))
	}

	if !steps.SubjectDataDeleted {
		if err := s.deleteSubjectData(ctx, subjectID); err != nil {
			failures = append(failures, fmt.Errorf("subject data: %w", err))
		} else {
			steps.SubjectDataDeleted = true
			s.persistStep(ctx, requestID, StepSubjectData, true)
		}
	}

	if !steps.CascadeCompleted {
		if refErr != nil {
			failures = append(failures, errors.New("cascade skipped: collaborator references unavailable"))
		} else if err := s.cascade(ctx, subjectID, refs); err != nil {
			failures = append(failures, fmt.Errorf("cascade: %w", err))
		} else {
			steps.CascadeCompleted = true
			s.persistStep(ctx, requestID, StepCascade, true)
		}
	}

	archiveSkipped := false
	if !steps.ProtectedDataArchived {
		skipped, err := s.archiveProtectedData(ctx, req)
		if err != nil {
			failures = append(failures, fmt.Errorf("billing archive: %w", err))
		} else {
			archiveSkipped = skipped
			steps.ProtectedDataArchived = true
			s.persistStep(ctx, requestID, StepArchive, true)
		}
	}

	if !steps.CredentialDeleted {
		if err := s.creds.DeleteCredential(ctx, subjectID); err != nil {
			// Recorded but never rolls back steps 1-3; the stores share no
			// transaction.
			failures = append(failures, fmt.Errorf("credential: %w", err))
		} else {
			steps.CredentialDeleted = true
			s.persistStep(ctx, requestID, StepCredential, true)
		}
	}

	status := StatusCompleted
	if !steps.SubjectDataDeleted || !steps.CascadeCompleted || !steps.CredentialDeleted {
		status = StatusFailed
	}
	errMsg := ""
	if err := errors.Join(failures...); err != nil {
		errMsg = err.Error()
	}
	completedAt := s.now().UTC()
	if err := s.requests.SetStatus(ctx, requestID, status, errMsg, &completedAt); err != nil {
		return ExecutionResult{}, fmt.Errorf("request finalize failed: %w", err)
	}

	if status == StatusCompleted {
		if sendErr := s.notifier.Send(ctx, notify.TemplateDeletionConfirmed, subject.Email, map[string]any{
			"name": subject.Name,
		}); sendErr != nil {
			s.log.Warn("deletion confirmation failed", "subjectId", subjectID, "err", sendErr)
		}
	}

	if s.observer != nil {
		s.observer.ObserveDeletion(status, s.now().Sub(start))
	}
	s.log.Info("deletion execution finished",
		"requestId", requestID,
		"status", status,
		"collaborators", len(refs),
		"archiveSkipped", archiveSkipped,
	)

	return ExecutionResult{
		RequestID:         requestID,
		Status:            status,
		Steps:             steps,
		CollaboratorCount: len(refs),
		ArchiveSkipped:    archiveSkipped,
		Error:             errMsg,
	}, nil
}

// deleteSubjectData removes or anonymizes everything the subject owns:
// profile fields become placeholders, owned contacts and groups are
// deleted, usage analytics lose ip and user agent but keep aggregates,
// consent-log entries get an anonymized subject reference (they outlive the
// account for seven years), and open non-deletion privacy requests are
// dropped.
func (s *Service) deleteSubjectData(ctx context.Context, subjectID string) error {
	if err := s.subjects.DeleteOwnedCollections(ctx, subjectID); err != nil {
		return err
	}
	if err := s.subjects.AnonymizeUsage(ctx, subjectID); err != nil {
		return err
	}
	if err := s.subjects.AnonymizeConsentLogs(ctx, subjectID, anonymizedRef(subjectID)); err != nil {
		return err
	}
	if err := s.subjects.DeletePrivacyRequests(ctx, subjectID); err != nil {
		return err
	}
	return s.subjects.ScrubProfile(ctx, subjectID, anonymizedName, anonymizedEmail(subjectID))
}

// cascade anonymizes every collaborator contact referencing the subject.
// Fan-out is bounded so a popular subject cannot overwhelm the storage
// backend. The anonymization write sets fields to fixed values, so retrying
// a partially failed cascade is safe.
func (s *Service) cascade(ctx context.Context, subjectID string, refs []ContactRef) error {
	if len(refs) == 0 {
		return nil
	}

	placeholderEmail := anonymizedEmail(subjectID)
	auditNote := fmt.Sprintf("Contact details removed on %s following an account erasure request.", s.now().UTC().Format("2006-01-02"))

	var mu sync.Mutex
	var failures []error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cascadeWorkers)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			if err := s.collabs.AnonymizeContact(gctx, ref, anonymizedName, placeholderEmail, auditNote); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("contact %s: %w", ref.ContactID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(failures...)
}

// archiveProtectedData copies billing history into the archive partition
// with a ten-year retention marker, sealed with the archive key. A subject
// without billing history skips the step. KeepBillingData leaves the live
// rows in place; otherwise they are removed once archived.
func (s *Service) archiveProtectedData(ctx context.Context, req DeletionRequest) (skipped bool, err error) {
	records, err := s.subjects.BillingHistory(ctx, req.SubjectID)
	if err != nil {
		return false, err
	}
	if len(records) == 0 {
		return true, nil
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return false, err
	}
	sealed := payload
	if s.crypto != nil {
		if sealed, err = s.crypto.Seal(payload); err != nil {
			return false, err
		}
	}

	retainUntil := s.now().UTC().AddDate(billingRetentionYears, 0, 0)
	if err := s.subjects.ArchiveBilling(ctx, req.SubjectID, sealed, retainUntil); err != nil {
		return false, err
	}
	if !req.KeepBillingData {
		if err := s.subjects.DeleteBillingRecords(ctx, req.SubjectID); err != nil {
			return false, err
		}
	}
	return false, nil
}
