package deletion

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Steps tracks the independent phases of an execution. Each flag is
// persisted as soon as its step finishes, so a partially executed deletion
// is diagnosable and a retried execution skips completed work.
type Steps struct {
	SubjectDataDeleted    bool `json:"subjectDataDeleted"`
	CollaboratorsNotified bool `json:"collaboratorsNotified"`
	CascadeCompleted      bool `json:"cascadeCompleted"`
	ProtectedDataArchived bool `json:"protectedDataArchived"`
	CredentialDeleted     bool `json:"credentialDeleted"`
}

// DeletionRequest is the erasure lifecycle record for one subject. Only
// this package mutates it. pending -> completed | failed | cancelled;
// terminal states absorb.
type DeletionRequest struct {
	ID                    string     `json:"id"`
	SubjectID             string     `json:"subjectId"`
	RequestedAt           time.Time  `json:"requestedAt"`
	Status                string     `json:"status"`
	ScheduledDeletionDate time.Time  `json:"scheduledDeletionDate"`
	Immediate             bool       `json:"immediate"`
	KeepBillingData       bool       `json:"keepBillingData"`
	Reason                string     `json:"reason,omitempty"`
	Steps                 Steps      `json:"steps"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
	Error                 string     `json:"error,omitempty"`
}

type RequestOptions struct {
	Reason          string `json:"reason,omitempty"`
	Immediate       bool   `json:"immediate"`
	KeepBillingData bool   `json:"keepBillingData"`
}

type RequestResult struct {
	Request                   DeletionRequest  `json:"request"`
	AffectedCollaboratorCount int              `json:"affectedCollaboratorCount"`
	Execution                 *ExecutionResult `json:"execution,omitempty"`
}

type ExecutionResult struct {
	RequestID         string `json:"requestId"`
	Status            string `json:"status"`
	Steps             Steps  `json:"steps"`
	CollaboratorCount int    `json:"collaboratorCount"`
	ArchiveSkipped    bool   `json:"archiveSkipped"`
	Error             string `json:"error,omitempty"`
}

// ContactRef identifies one collaborator record referencing the subject.
type ContactRef struct {
	ContactID  string
	OwnerID    string
	OwnerEmail string
	OwnerName  string
}

type BillingRecord struct {
	ID        string    `json:"id"`
	Plan      string    `json:"plan"`
	AmountCts int64     `json:"amountCents"`
	Currency  string    `json:"currency"`
	PeriodEnd time.Time `json:"periodEnd"`
	CreatedAt time.Time `json:"createdAt"`
}
