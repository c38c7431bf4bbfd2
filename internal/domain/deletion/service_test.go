package deletion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type memRequestStore struct {
	requests map[string]DeletionRequest
}

func newMemRequestStore() *memRequestStore {
	return &memRequestStore{requests: map[string]DeletionRequest{}}
}

func (s *memRequestStore) Insert(ctx context.Context, req DeletionRequest) error {
	s.requests[req.ID] = req
	return nil
}

func (s *memRequestStore) Get(ctx context.Context, requestID string) (DeletionRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return DeletionRequest{}, ErrRequestNotFound
	}
	return req, nil
}

func (s *memRequestStore) PendingForSubject(ctx context.Context, subjectID string) (DeletionRequest, bool, error) {
	for _, req := range s.requests {
		if req.SubjectID == subjectID && req.Status == StatusPending {
			return req, true, nil
		}
	}
	return DeletionRequest{}, false, nil
}

func (s *memRequestStore) SetStatus(ctx context.Context, requestID, status, errMsg string, completedAt *time.Time) error {
	req, ok := s.requests[requestID]
	if !ok {
		return ErrRequestNotFound
	}
	req.Status = status
	req.Error = errMsg
	req.CompletedAt = completedAt
	s.requests[requestID] = req
	return nil
}

func (s *memRequestStore) SetStep(ctx context.Context, requestID, step string, done bool) error {
	req, ok := s.requests[requestID]
	if !ok {
		return ErrRequestNotFound
	}
	switch step {
	case StepSubjectData:
		req.Steps.SubjectDataDeleted = done
	case StepCollaborators:
		req.Steps.CollaboratorsNotified = done
	case StepCascade:
		req.Steps.CascadeCompleted = done
	case StepArchive:
		req.Steps.ProtectedDataArchived = done
	case StepCredential:
		req.Steps.CredentialDeleted = done
	default:
		return errors.New("unknown step")
	}
	s.requests[requestID] = req
	return nil
}

type memSubjectStore struct {
	subject Subject

	pendingMarked       bool
	pendingCleared      bool
	scrubbed            bool
	collectionsDeleted  bool
	usageAnonymized     bool
	consentAnonymized   bool
	consentRef          string
	privacyReqsDeleted  bool
	billing             []BillingRecord
	billingErr          error
	archivedPayload     []byte
	archivedRetainUntil time.Time
	billingDeleted      bool
}

func (s *memSubjectStore) GetSubject(ctx context.Context, subjectID string) (Subject, error) {
	if subjectID != s.subject.ID {
		return Subject{}, ErrSubjectNotFound
	}
	return s.subject, nil
}

func (s *memSubjectStore) MarkPendingDeletion(ctx context.Context, subjectID string, scheduled time.Time) error {
	s.pendingMarked = true
	return nil
}

func (s *memSubjectStore) ClearPendingDeletion(ctx context.Context, subjectID string) error {
	s.pendingCleared = true
	return nil
}

func (s *memSubjectStore) ScrubProfile(ctx context.Context, subjectID, placeholderName, placeholderEmail string) error {
	s.scrubbed = true
	return nil
}

func (s *memSubjectStore) DeleteOwnedCollections(ctx context.Context, subjectID string) error {
	s.collectionsDeleted = true
	return nil
}

func (s *memSubjectStore) AnonymizeUsage(ctx context.Context, subjectID string) error {
	s.usageAnonymized = true
	return nil
}

func (s *memSubjectStore) AnonymizeConsentLogs(ctx context.Context, subjectID, placeholderRef string) error {
	s.consentAnonymized = true
	s.consentRef = placeholderRef
	return nil
}

func (s *memSubjectStore) DeletePrivacyRequests(ctx context.Context, subjectID string) error {
	s.privacyReqsDeleted = true
	return nil
}

func (s *memSubjectStore) BillingHistory(ctx context.Context, subjectID string) ([]BillingRecord, error) {
	return s.billing, s.billingErr
}

func (s *memSubjectStore) ArchiveBilling(ctx context.Context, subjectID string, payload []byte, retainUntil time.Time) error {
	s.archivedPayload = payload
	s.archivedRetainUntil = retainUntil
	return nil
}

func (s *memSubjectStore) DeleteBillingRecords(ctx context.Context, subjectID string) error {
	s.billingDeleted = true
	return nil
}

func (s *memSubjectStore) mutated() bool {
	return s.scrubbed || s.collectionsDeleted || s.usageAnonymized ||
		s.consentAnonymized || s.privacyReqsDeleted || s.billingDeleted ||
		s.archivedPayload != nil
}

type memRefs struct {
	refs []ContactRef
	err  error
}

func (r *memRefs) ReferencingContacts(ctx context.Context, subjectID, subjectEmail string) ([]ContactRef, error) {
	return r.refs, r.err
}

type memCollabs struct {
	mu         sync.Mutex
	anonymized map[string]string // contact id -> placeholder email
	failIDs    map[string]bool
}

func newMemCollabs() *memCollabs {
	return &memCollabs{anonymized: map[string]string{}}
}

func (c *memCollabs) AnonymizeContact(ctx context.Context, ref ContactRef, placeholderName, placeholderEmail, auditNote string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failIDs[ref.ContactID] {
		return errors.New("write conflict")
	}
	c.anonymized[ref.ContactID] = placeholderEmail
	return nil
}

type memCreds struct {
	deleted bool
	err     error
}

func (c *memCreds) DeleteCredential(ctx context.Context, subjectID string) error {
	if c.err != nil {
		return c.err
	}
	c.deleted = true
	return nil
}

type stubHolds struct {
	active bool
}

func (h stubHolds) IsActive(ctx context.Context, subjectID string) (bool, error) {
	return h.active, nil
}

type memDispatcher struct {
	mu        sync.Mutex
	sent      []string // template -> recipient pairs
	withdrawn []string
}

func (d *memDispatcher) Send(ctx context.Context, template, recipient string, payload map[string]any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, template+"/"+recipient)
	return nil
}

func (d *memDispatcher) Withdraw(ctx context.Context, recipient, template string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.withdrawn = append(d.withdrawn, template+"/"+recipient)
}

func (d *memDispatcher) sentTo(template, recipient string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.sent {
		if s == template+"/"+recipient {
			return true
		}
	}
	return false
}

type fixture struct {
	svc        *Service
	requests   *memRequestStore
	subjects   *memSubjectStore
	refs       *memRefs
	collabs    *memCollabs
	creds      *memCreds
	dispatcher *memDispatcher
}

func newFixture(holds HoldChecker) *fixture {
	f := &fixture{
		requests:   newMemRequestStore(),
		subjects:   &memSubjectStore{subject: Subject{ID: "subject-1", Email: "ada@x.com", Name: "Ada"}},
		refs:       &memRefs{},
		collabs:    newMemCollabs(),
		creds:      &memCreds{},
		dispatcher: &memDispatcher{},
	}
	f.svc = NewService(f.requests, f.subjects, f.refs, f.collabs, f.creds, holds, f.dispatcher, nil, nil, 30, 4)
	return f
}

func TestRequestDeletionSchedulesAfterGracePeriod(t *testing.T) {
	f := newFixture(stubHolds{})
	f.refs.refs = []ContactRef{
		{ContactID: "c1", OwnerID: "o1", OwnerEmail: "owner1@x.com"},
		{ContactID: "c2", OwnerID: "o2", OwnerEmail: "owner2@x.com"},
	}
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	result, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{Reason: "leaving"})
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if result.Request.Status != StatusPending {
		t.Fatalf("status: %s", result.Request.Status)
	}
	if want := now.AddDate(0, 0, 30); !result.Request.ScheduledDeletionDate.Equal(want) {
		t.Fatalf("scheduled date: %v", result.Request.ScheduledDeletionDate)
	}
	if result.AffectedCollaboratorCount != 2 {
		t.Fatalf("collaborator count: %d", result.AffectedCollaboratorCount)
	}
	if !f.subjects.pendingMarked {
		t.Fatal("subject not flagged pending deletion")
	}
	if !result.Request.Steps.CollaboratorsNotified {
		t.Fatal("collaborator notification step not marked")
	}
	if !f.dispatcher.sentTo("deletion_scheduled", "owner1@x.com") || !f.dispatcher.sentTo("deletion_scheduled", "ada@x.com") {
		t.Fatalf("missing scheduled notices: %v", f.dispatcher.sent)
	}
	// Nothing is deleted during the grace period.
	if f.subjects.mutated() {
		t.Fatal("request must not mutate subject data")
	}
}

func TestRequestDeletionRefusedUnderLegalHold(t *testing.T) {
	f := newFixture(stubHolds{active: true})

	_, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{Immediate: true})
	if !errors.Is(err, ErrLegalHold) {
		t.Fatalf("expected ErrLegalHold, got %v", err)
	}
	if len(f.requests.requests) != 0 {
		t.Fatal("no request row may be created under a hold")
	}
	if f.subjects.mutated() || f.subjects.pendingMarked {
		t.Fatal("a held subject must not be touched")
	}
}

func TestRequestDeletionUnknownSubject(t *testing.T) {
	f := newFixture(stubHolds{})

	if _, err := f.svc.RequestDeletion(context.Background(), "ghost", RequestOptions{}); !errors.Is(err, ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestRequestDeletionDuplicatePending(t *testing.T) {
	f := newFixture(stubHolds{})

	if _, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{}); err != nil {
		t.Fatalf("first request error: %v", err)
	}
	if _, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestImmediateDeletionExecutes(t *testing.T) {
	f := newFixture(stubHolds{})
	f.refs.refs = []ContactRef{{ContactID: "c1", OwnerID: "o1", OwnerEmail: "owner1@x.com"}}

	result, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{Immediate: true})
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if result.Execution == nil {
		t.Fatal("immediate request must execute")
	}
	if result.Execution.Status != StatusCompleted {
		t.Fatalf("execution status: %s (%s)", result.Execution.Status, result.Execution.Error)
	}
	if result.Request.Status != StatusCompleted {
		t.Fatalf("request status after execution: %s", result.Request.Status)
	}
	if !f.subjects.scrubbed || !f.creds.deleted {
		t.Fatal("subject data and credential must be gone")
	}
}

func TestCancelClearsPendingState(t *testing.T) {
	f := newFixture(stubHolds{})
	f.refs.refs = []ContactRef{{ContactID: "c1", OwnerID: "o1", OwnerEmail: "owner1@x.com"}}

	result, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{})
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	cancelled, err := f.svc.Cancel(context.Background(), "subject-1", result.Request.ID)
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status: %s", cancelled.Status)
	}
	if !f.subjects.pendingCleared {
		t.Fatal("pending flag not cleared")
	}
	if f.subjects.mutated() || len(f.collabs.anonymized) != 0 {
		t.Fatal("cancellation must leave all data intact")
	}
	// Scheduled notices are withdrawn and a cancellation notice goes out.
	if len(f.dispatcher.withdrawn) != 1 {
		t.Fatalf("withdrawals: %v", f.dispatcher.withdrawn)
	}
	if !f.dispatcher.sentTo("deletion_cancelled", "ada@x.com") {
		t.Fatalf("missing cancel notice: %v", f.dispatcher.sent)
	}
}

func TestCancelWrongOwner(t *testing.T) {
	f := newFixture(stubHolds{})
	result, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{})
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), "intruder", result.Request.ID); !errors.Is(err, ErrNotRequestOwner) {
		t.Fatalf("expected ErrNotRequestOwner, got %v", err)
	}
}

func TestCancelTerminalRequest(t *testing.T) {
	f := newFixture(stubHolds{})
	result, err := f.svc.RequestDeletion(context.Background(), "subject-1", RequestOptions{Immediate: true})
	if err != nil {
		t.Fatalf("request error: %v", err)
	}

	if _, err := f.svc.Cancel(context.Background(), "subject-1", result.Request.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestAnonymizedRefIsOpaque(t *testing.T) {
	ref := anonymizedRef("subject-1")
	if !strings.HasPrefix(ref, "erased:") {
		t.Fatalf("unexpected prefix: %s", ref)
	}
	if strings.Contains(ref, "subject-1") {
		t.Fatal("reference must not embed the identity")
	}
	if ref != anonymizedRef("subject-1") {
		t.Fatal("reference must be stable")
	}
	if ref == anonymizedRef("subject-2") {
		t.Fatal("distinct subjects must map to distinct refs")
	}
}
