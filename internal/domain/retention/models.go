package retention

import (
	"time"

	"lifecycle/internal/domain/scan"
)

// PreviewLimit caps the items shown per category in eligibility summaries.
const PreviewLimit = 10

type CategorySummary struct {
	DataType string      `json:"dataType"`
	Category string      `json:"category"`
	Count    int         `json:"count"`
	Preview  []scan.Item `json:"preview"`
}

type EligibilitySummary struct {
	TotalItems int                        `json:"totalItems"`
	ByCategory map[string]CategorySummary `json:"byCategory"`
}

type CleanupOptions struct {
	DryRun    bool     `json:"dryRun"`
	PolicyIDs []string `json:"policyIds,omitempty"`
}

type CategoryDetail struct {
	DataType string `json:"dataType"`
	Category string `json:"category"`
	Eligible int    `json:"eligible"`
	Deleted  int    `json:"deleted"`
	Notified int    `json:"notified"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

type CleanupResult struct {
	DryRun     bool             `json:"dryRun"`
	Deleted    int              `json:"deletedCount"`
	Notified   int              `json:"notifiedCount"`
	Failed     int              `json:"failedCount"`
	Details    []CategoryDetail `json:"details"`
	ExecutedAt time.Time        `json:"executedAt"`
}

// CleanupLog is the append-only execution record. Dry-runs are logged too,
// so rehearsals stay auditable.
type CleanupLog struct {
	ID         string           `json:"id"`
	DryRun     bool             `json:"dryRun"`
	Deleted    int              `json:"deletedCount"`
	Notified   int              `json:"notifiedCount"`
	Failed     int              `json:"failedCount"`
	Details    []CategoryDetail `json:"details"`
	ExecutedAt time.Time        `json:"executedAt"`
}
