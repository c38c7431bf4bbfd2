package scan

import (
	"context"
	"time"

	"lifecycle/internal/domain/policy"
)

// DefaultMaxItems bounds a single eligibility scan so scheduled jobs stay
// cheap on large stores.
const DefaultMaxItems = 100

// Item is one record past its retention window. SizeBytes is the per-type
// estimate used for space-savings reporting, not an exact measurement.
type Item struct {
	ID         string    `json:"id"`
	DataType   string    `json:"dataType"`
	OwnerID    string    `json:"ownerId,omitempty"`
	OwnerEmail string    `json:"ownerEmail,omitempty"`
	Label      string    `json:"label,omitempty"`
	AgedSince  time.Time `json:"agedSince"`
	SizeBytes  int64     `json:"sizeBytes"`
}

// Source answers bounded "older than" queries per data type. Data types
// with no backing query return an empty result, never an error.
type Source interface {
	RecordsOlderThan(ctx context.Context, dataType string, cutoff time.Time, limit int) ([]Item, error)
}

type Scanner struct {
	src     Source
	timeout time.Duration
	now     func() time.Time
}

func NewScanner(src Source, storageTimeout time.Duration) *Scanner {
	return &Scanner{src: src, timeout: storageTimeout, now: time.Now}
}

// FindEligible returns records whose age exceeds the policy's retention
// window, capped to maxItems (DefaultMaxItems when zero or negative). Every
// backend query runs under the storage timeout so a stuck scan fails
// visibly instead of wedging a scheduled job.
func (s *Scanner) FindEligible(ctx context.Context, pol policy.RetentionPolicy, maxItems int) ([]Item, error) {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	cutoff := s.now().AddDate(0, 0, -pol.RetentionDays)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.src.RecordsOlderThan(ctx, pol.DataType, cutoff, maxItems)
}
