package scan

import (
	"context"
	"testing"
	"time"

	"lifecycle/internal/domain/policy"
)

type captureSource struct {
	dataType string
	cutoff   time.Time
	limit    int
	items    []Item
}

func (s *captureSource) RecordsOlderThan(ctx context.Context, dataType string, cutoff time.Time, limit int) ([]Item, error) {
	s.dataType = dataType
	s.cutoff = cutoff
	s.limit = limit
	return s.items, nil
}

func TestFindEligibleCutoffAndLimit(t *testing.T) {
	src := &captureSource{items: []Item{{ID: "1"}}}
	scanner := NewScanner(src, time.Second)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	scanner.now = func() time.Time { return now }

	pol := policy.RetentionPolicy{DataType: policy.DataTypeExportRequests, RetentionDays: 90}
	items, err := scanner.FindEligible(context.Background(), pol, 25)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected passthrough items, got %d", len(items))
	}
	if src.dataType != policy.DataTypeExportRequests {
		t.Fatalf("wrong data type: %s", src.dataType)
	}
	if src.limit != 25 {
		t.Fatalf("expected explicit limit, got %d", src.limit)
	}
	if want := now.AddDate(0, 0, -90); !src.cutoff.Equal(want) {
		t.Fatalf("cutoff: got %v want %v", src.cutoff, want)
	}
}

func TestFindEligibleDefaultLimit(t *testing.T) {
	src := &captureSource{}
	scanner := NewScanner(src, 0)

	if _, err := scanner.FindEligible(context.Background(), policy.RetentionPolicy{RetentionDays: 1}, 0); err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if src.limit != DefaultMaxItems {
		t.Fatalf("expected default limit %d, got %d", DefaultMaxItems, src.limit)
	}
}

func TestFindEligibleAppliesTimeout(t *testing.T) {
	src := &captureSource{}
	scanner := NewScanner(deadlineCheck{src}, time.Minute)

	if _, err := scanner.FindEligible(context.Background(), policy.RetentionPolicy{RetentionDays: 1}, 1); err != nil {
		t.Fatalf("scan error: %v", err)
	}
}

type deadlineCheck struct {
	inner Source
}

func (d deadlineCheck) RecordsOlderThan(ctx context.Context, dataType string, cutoff time.Time, limit int) ([]Item, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, context.DeadlineExceeded
	}
	return d.inner.RecordsOlderThan(ctx, dataType, cutoff, limit)
}
