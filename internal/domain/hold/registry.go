package hold

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LegalHold suspends deletion for one subject regardless of retention
// policy. ExpiresAt is advisory metadata: an expired hold keeps blocking
// until it is explicitly removed.
type LegalHold struct {
	ID        string     `json:"id"`
	SubjectID string     `json:"subjectId"`
	Reason    string     `json:"reason"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Active    bool       `json:"active"`
}

type Store interface {
	Insert(ctx context.Context, h LegalHold) error
	Deactivate(ctx context.Context, holdID string) error
	CountActive(ctx context.Context, subjectID string) (int, error)
	List(ctx context.Context) ([]LegalHold, error)
}

type Registry struct {
	store Store
	now   func() time.Time
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

func (r *Registry) Add(ctx context.Context, subjectID, reason string, expiresAt *time.Time) (LegalHold, error) {
	h := LegalHold{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Reason:    reason,
		CreatedAt: r.now().UTC(),
		ExpiresAt: expiresAt,
		Active:    true,
	}
	if err := r.store.Insert(ctx, h); err != nil {
		return LegalHold{}, err
	}
	return h, nil
}

// Remove deactivates a hold. Removing an already inactive or unknown hold
// is a no-op.
func (r *Registry) Remove(ctx context.Context, holdID string) error {
	return r.store.Deactivate(ctx, holdID)
}

func (r *Registry) IsActive(ctx context.Context, subjectID string) (bool, error) {
	n, err := r.store.CountActive(ctx, subjectID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Registry) List(ctx context.Context) ([]LegalHold, error) {
	return r.store.List(ctx)
}
