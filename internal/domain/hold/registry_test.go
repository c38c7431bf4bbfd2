package hold

import (
	"context"
	"testing"
	"time"
)

type memStore struct {
	holds map[string]LegalHold
}

func newMemStore() *memStore {
	return &memStore{holds: map[string]LegalHold{}}
}

func (s *memStore) Insert(ctx context.Context, h LegalHold) error {
	s.holds[h.ID] = h
	return nil
}

func (s *memStore) Deactivate(ctx context.Context, holdID string) error {
	if h, ok := s.holds[holdID]; ok {
		h.Active = false
		s.holds[holdID] = h
	}
	return nil
}

func (s *memStore) CountActive(ctx context.Context, subjectID string) (int, error) {
	n := 0
	for _, h := range s.holds {
		if h.SubjectID == subjectID && h.Active {
			n++
		}
	}
	return n, nil
}

func (s *memStore) List(ctx context.Context) ([]LegalHold, error) {
	out := make([]LegalHold, 0, len(s.holds))
	for _, h := range s.holds {
		out = append(out, h)
	}
	return out, nil
}

func TestAddAndRemove(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(newMemStore())

	h, err := registry.Add(ctx, "subject-1", "ongoing litigation", nil)
	if err != nil {
		t.Fatalf("add error: %v", err)
	}
	if h.ID == "" || !h.Active {
		t.Fatalf("unexpected hold: %+v", h)
	}

	active, err := registry.IsActive(ctx, "subject-1")
	if err != nil {
		t.Fatalf("is-active error: %v", err)
	}
	if !active {
		t.Fatal("expected subject to be held")
	}

	if err := registry.Remove(ctx, h.ID); err != nil {
		t.Fatalf("remove error: %v", err)
	}
	active, err = registry.IsActive(ctx, "subject-1")
	if err != nil {
		t.Fatalf("is-active error: %v", err)
	}
	if active {
		t.Fatal("expected hold to be released")
	}
}

func TestRemoveUnknownHoldIsNoop(t *testing.T) {
	registry := NewRegistry(newMemStore())
	if err := registry.Remove(context.Background(), "missing"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestExpiredHoldStillBlocks(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry(newMemStore())

	expired := time.Now().Add(-24 * time.Hour)
	if _, err := registry.Add(ctx, "subject-1", "tax audit", &expired); err != nil {
		t.Fatalf("add error: %v", err)
	}

	active, err := registry.IsActive(ctx, "subject-1")
	if err != nil {
		t.Fatalf("is-active error: %v", err)
	}
	if !active {
		t.Fatal("expiry is advisory, hold must block until removed")
	}
}
