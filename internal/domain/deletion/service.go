package deletion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lifecycle/internal/domain/notify"
	"lifecycle/internal/platform/crypto"
)

// Step column names persisted on the request record.
const (
	StepSubjectData   = "subject_data_deleted"
	StepCollaborators = "collaborators_notified"
	StepCascade       = "cascade_completed"
	StepArchive       = "protected_data_archived"
	StepCredential    = "credential_deleted"
)

type Subject struct {
	ID              string
	Email           string
	Name            string
	PendingDeletion bool
}

type RequestStore interface {
	Insert(ctx context.Context, req DeletionRequest) error
	Get(ctx context.Context, requestID string) (DeletionRequest, error)
	PendingForSubject(ctx context.Context, subjectID string) (DeletionRequest, bool, error)
	SetStatus(ctx context.Context, requestID, status, errMsg string, completedAt *time.Time) error
	SetStep(ctx context.Context, requestID, step string, done bool) error
}

type SubjectStore interface {
	GetSubject(ctx context.Context, subjectID string) (Subject, error)
	MarkPendingDeletion(ctx context.Context, subjectID string, scheduled time.Time) error
	ClearPendingDeletion(ctx context.Context, subjectID string) error
	ScrubProfile(ctx context.Context, subjectID, placeholderName, placeholderEmail string) error
	DeleteOwnedCollections(ctx context.Context, subjectID string) error
	AnonymizeUsage(ctx context.Context, subjectID string) error
	AnonymizeConsentLogs(ctx context.Context, subjectID, placeholderRef string) error
	DeletePrivacyRequests(ctx context.Context, subjectID string) error
	BillingHistory(ctx context.Context, subjectID string) ([]BillingRecord, error)
	ArchiveBilling(ctx context.Context, subjectID string, payload []byte, retainUntil time.Time) error
	DeleteBillingRecords(ctx context.Context, subjectID string) error
}

// ReferenceIndex answers "which collaborator records reference this
// subject". The bundled implementation is a linear scan over contacts; a
// maintained reverse index can replace it without touching the
// orchestrator.
type ReferenceIndex interface {
	ReferencingContacts(ctx context.Context, subjectID, subjectEmail string) ([]ContactRef, error)
}

type CollaboratorStore interface {
	AnonymizeContact(ctx context.Context, ref ContactRef, placeholderName, placeholderEmail, auditNote string) error
}

type CredentialStore interface {
	DeleteCredential(ctx context.Context, subjectID string) error
}

type HoldChecker interface {
	IsActive(ctx context.Context, subjectID string) (bool, error)
}

type Observer interface {
	ObserveDeletion(status string, elapsed time.Duration)
}

// Service owns the right-to-erasure lifecycle: request, grace period,
// cascading execution, archival and confirmation.
type Service struct {
	requests RequestStore
	subjects SubjectStore
	refs     ReferenceIndex
	collabs  CollaboratorStore
	creds    CredentialStore
	holds    HoldChecker
	notifier notify.Dispatcher
	crypto   *crypto.Service
	observer Observer

	gracePeriodDays int
	cascadeWorkers  int
	now             func() time.Time
	log             *slog.Logger
}

func NewService(
	requests RequestStore,
	subjects SubjectStore,
	refs ReferenceIndex,
	collabs CollaboratorStore,
	creds CredentialStore,
	holds HoldChecker,
	notifier notify.Dispatcher,
	cryptoSvc *crypto.Service,
	observer Observer,
	gracePeriodDays, cascadeWorkers int,
) *Service {
	if gracePeriodDays <= 0 {
		gracePeriodDays = 30
	}
	if cascadeWorkers <= 0 {
		cascadeWorkers = 8
	}
	return &Service{
		requests:        requests,
		subjects:        subjects,
		refs:            refs,
		collabs:         collabs,
		creds:           creds,
		holds:           holds,
		notifier:        notifier,
		crypto:          cryptoSvc,
		observer:        observer,
		gracePeriodDays: gracePeriodDays,
		cascadeWorkers:  cascadeWorkers,
		now:             time.Now,
		log:             slog.Default().With("component", "deletion"),
	}
}

// RequestDeletion opens the erasure lifecycle for a subject. An active
// legal hold refuses the request outright; the same check repeats inside
// Execute, treating hold supremacy as a hard invariant rather than a
// single-point optimization.
func (s *Service) RequestDeletion(ctx context.Context, subjectID string, opts RequestOptions) (RequestResult, error) {
	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err != nil {
		return RequestResult{}, err
	}

	held, err := s.holds.IsActive(ctx, subjectID)
	if err != nil {
		return RequestResult{}, fmt.Errorf("legal hold check: %w", err)
	}
	if held {
		return RequestResult{}, ErrLegalHold
	}

	if _, exists, err := s.requests.PendingForSubject(ctx, subjectID); err != nil {
		return RequestResult{}, err
	} else if exists {
		return RequestResult{}, fmt.Errorf("%w: a pending deletion request already exists", ErrInvalidState)
	}

	now := s.now().UTC()
	scheduled := now
	if !opts.Immediate {
		scheduled = now.AddDate(0, 0, s.gracePeriodDays)
	}

	req := DeletionRequest{
		ID:                    uuid.NewString(),
		SubjectID:             subjectID,
		RequestedAt:           now,
		Status:                StatusPending,
		ScheduledDeletionDate: scheduled,
		Immediate:             opts.Immediate,
		KeepBillingData:       opts.KeepBillingData,
		Reason:                opts.Reason,
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		return RequestResult{}, err
	}

	// Reference discovery up front: the count is reported to the caller and
	// collaborators get their advance notice during the grace period.
	refs, err := s.refs.ReferencingContacts(ctx, subjectID, subject.Email)
	if err != nil {
		s.log.Warn("collaborator discovery failed during request", "subjectId", subjectID, "err", err)
		refs = nil
	}

	s.notifyCollaborators(ctx, refs, notify.TemplateDeletionScheduled, map[string]any{
		"scheduledDeletionDate": scheduled.Format("2006-01-02"),
	})
	if sendErr := s.notifier.Send(ctx, notify.TemplateDeletionScheduled, subject.Email, map[string]any{
		"userId":                subjectID,
		"name":                  subject.Name,
		"scheduledDeletionDate": scheduled.Format("2006-01-02"),
	}); sendErr != nil {
		s.log.Warn("subject notification failed", "subjectId", subjectID, "err", sendErr)
	}
	req.Steps.CollaboratorsNotified = true
	s.persistStep(ctx, req.ID, StepCollaborators, true)

	if err := s.subjects.MarkPendingDeletion(ctx, subjectID, scheduled); err != nil {
		return RequestResult{}, err
	}

	result := RequestResult{Request: req, AffectedCollaboratorCount: len(refs)}
	if opts.Immediate {
		exec, err := s.Execute(ctx, subjectID, req.ID)
		if err != nil {
			return RequestResult{}, err
		}
		result.Execution = &exec
		result.Request, _ = s.requests.Get(ctx, req.ID)
	}
	return result, nil
}

// Cancel aborts a pending request. Completed, failed and cancelled requests
// are terminal.
func (s *Service) Cancel(ctx context.Context, subjectID, requestID string) (DeletionRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return DeletionRequest{}, err
	}
	if req.SubjectID != subjectID {
		return DeletionRequest{}, ErrNotRequestOwner
	}
	if req.Status != StatusPending {
		return DeletionRequest{}, fmt.Errorf("%w: cannot cancel a %s request", ErrInvalidState, req.Status)
	}

	if err := s.requests.SetStatus(ctx, requestID, StatusCancelled, "", nil); err != nil {
		return DeletionRequest{}, err
	}
	if err := s.subjects.ClearPendingDeletion(ctx, subjectID); err != nil {
		return DeletionRequest{}, err
	}

	subject, err := s.subjects.GetSubject(ctx, subjectID)
	if err == nil {
		refs, refErr := s.refs.ReferencingContacts(ctx, subjectID, subject.Email)
		if refErr != nil {
			s.log.Warn("collaborator discovery failed during cancel", "subjectId", subjectID, "err", refErr)
		}
		for _, ref := range refs {
			if w, ok := s.notifier.(interface {
				Withdraw(ctx context.Context, recipient, template string)
			}); ok {
				w.Withdraw(ctx, ref.OwnerEmail, notify.TemplateDeletionScheduled)
			}
		}
		s.notifyCollaborators(ctx, refs, notify.TemplateDeletionCancelled, nil)
		if sendErr := s.notifier.Send(ctx, notify.TemplateDeletionCancelled, subject.Email, map[string]any{
			"userId": subjectID,
			"name":   subject.Name,
		}); sendErr != nil {
			s.log.Warn("subject cancel notice failed", "subjectId", subjectID, "err", sendErr)
		}
	}

	req.Status = StatusCancelled
	return req, nil
}

func (s *Service) Get(ctx context.Context, requestID string) (DeletionRequest, error) {
	return s.requests.Get(ctx, requestID)
}

func (s *Service) notifyCollaborators(ctx context.Context, refs []ContactRef, template string, extra map[string]any) {
	if len(refs) == 0 {
		return
	}
	byEmail := make(map[string]ContactRef, len(refs))
	recipients := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.OwnerEmail == "" {
			continue
		}
		if _, dup := byEmail[ref.OwnerEmail]; dup {
			continue
		}
		byEmail[ref.OwnerEmail] = ref
		recipients = append(recipients, ref.OwnerEmail)
	}

	outcomes := notify.SettleAll(ctx, s.cascadeWorkers, recipients, func(ctx context.Context, recipient string) error {
		ref := byEmail[recipient]
		payload := map[string]any{
			"userId": ref.OwnerID,
			"name":   ref.OwnerName,
		}
		for k, v := range extra {
			payload[k] = v
		}
		return s.notifier.Send(ctx, template, recipient, payload)
	})
	if failed := notify.Failed(outcomes); failed > 0 {
		s.log.Warn("collaborator notifications incomplete", "template", template, "failed", failed, "total", len(recipients))
	}
}

func (s *Service) persistStep(ctx context.Context, requestID, step string, done bool) {
	if err := s.requests.SetStep(ctx, requestID, step, done); err != nil {
		s.log.Warn("step persist failed", "requestId", requestID, "step", step, "err", err)
	}
}

const anonymizedName = "Deleted User"

func anonymizedEmail(id string) string {
	return fmt.Sprintf("anonymized+%s@example.local", id)
}

// anonymizedRef derives a stable opaque reference for consent-log entries,
// keeping the audit trail linkable without retaining the identity itself.
func anonymizedRef(id string) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("erased:%s", hex.EncodeToString(sum[:8]))
}
