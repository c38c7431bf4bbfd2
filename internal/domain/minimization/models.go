package minimization

import "time"

const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

type Recommendation struct {
	Severity      string `json:"severity"`
	Category      string `json:"category"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Action        string `json:"action"`
	AffectedCount int    `json:"affectedCount"`
}

type CategoryFindings struct {
	DataType      string `json:"dataType"`
	Count         int    `json:"count"`
	EstimatedSize int64  `json:"estimatedSizeBytes"`
	ScanError     string `json:"scanError,omitempty"`
}

// AuditReport is immutable once written; reports form an append-only
// history.
type AuditReport struct {
	ID                      string                      `json:"id"`
	AuditDate               time.Time                   `json:"auditDate"`
	TotalIssues             int                         `json:"totalIssues"`
	Recommendations         []Recommendation            `json:"recommendations"`
	DataByCategory          map[string]CategoryFindings `json:"dataByCategory"`
	EstimatedSpaceSavingsMB float64                     `json:"estimatedSpaceSavingsMB"`
}

type Options struct {
	MaxItemsPerCategory int `json:"maxItemsPerCategory"`
}

type Statistics struct {
	ReportCount             int        `json:"reportCount"`
	LastAuditDate           *time.Time `json:"lastAuditDate,omitempty"`
	LastTotalIssues         int        `json:"lastTotalIssues"`
	TotalEstimatedSavingsMB float64    `json:"totalEstimatedSavingsMB"`
}
