package minimization

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"lifecycle/internal/domain/policy"
	"lifecycle/internal/domain/scan"
	"lifecycle/internal/domain/schedule"
)

type EligibilitySource interface {
	FindEligible(ctx context.Context, pol policy.RetentionPolicy, maxItems int) ([]scan.Item, error)
}

type ReportStore interface {
	Append(ctx context.Context, report AuditReport) error
	Latest(ctx context.Context) (AuditReport, bool, error)
	Stats(ctx context.Context) (Statistics, error)
}

type Counter interface {
	RecordAudit()
}

// Auditor scans categories of stored data for cleanup opportunities and
// persists a scored report.
type Auditor struct {
	catalog   policy.Catalog
	scanner   EligibilitySource
	reports   ReportStore
	schedules schedule.Store
	counter   Counter
	now       func() time.Time
	log       *slog.Logger
}

func NewAuditor(catalog policy.Catalog, scanner EligibilitySource, reports ReportStore, schedules schedule.Store, counter Counter) *Auditor {
	return &Auditor{
		catalog:   catalog,
		scanner:   scanner,
		reports:   reports,
		schedules: schedules,
		counter:   counter,
		now:       time.Now,
		log:       slog.Default().With("component", "minimization"),
	}
}

// Data types the periodic audit covers, in scan order.
var auditedDataTypes = []string{
	policy.DataTypeInactiveUserProfile,
	policy.DataTypePageViewData,
	policy.DataTypeExportRequests,
	policy.DataTypeSystemLogs,
	policy.DataTypeNotificationRecords,
}

// RunAudit executes the category scans in sequence. A failed sub-scan is
// logged and contributes zero findings; the audit as a whole fails only
// when the report cannot be persisted.
func (a *Auditor) RunAudit(ctx context.Context, opts Options) (AuditReport, error) {
	maxItems := opts.MaxItemsPerCategory
	if maxItems <= 0 {
		maxItems = scan.DefaultMaxItems
	}

	report := AuditReport{
		ID:             uuid.NewString(),
		AuditDate:      a.now().UTC(),
		DataByCategory: map[string]CategoryFindings{},
	}

	policies := a.catalog.Get()
	var totalBytes int64
	for _, dataType := range auditedDataTypes {
		pol, ok := policies[dataType]
		if !ok {
			continue
		}

		findings := CategoryFindings{DataType: dataType}
		items, err := a.scanner.FindEligible(ctx, pol, maxItems)
		if err != nil {
			a.log.Warn("audit sub-scan failed", "dataType", dataType, "err", err)
			findings.ScanError = err.Error()
			report.DataByCategory[pol.Category] = findings
			continue
		}

		for _, item := range items {
			findings.EstimatedSize += item.SizeBytes
		}
		findings.Count = len(items)
		report.DataByCategory[pol.Category] = findings
		report.TotalIssues += findings.Count
		totalBytes += findings.EstimatedSize

		if findings.Count > 0 {
			report.Recommendations = append(report.Recommendations, buildRecommendation(pol, findings))
		}
	}

	report.EstimatedSpaceSavingsMB = math.Round(float64(totalBytes)/(1024*1024)*100) / 100

	if err := a.reports.Append(ctx, report); err != nil {
		return AuditReport{}, fmt.Errorf("audit report persist failed: %w", err)
	}
	if a.counter != nil {
		a.counter.RecordAudit()
	}
	a.log.Info("minimization audit completed",
		"totalIssues", report.TotalIssues,
		"recommendations", len(report.Recommendations),
		"estimatedSavingsMB", report.EstimatedSpaceSavingsMB,
	)
	return report, nil
}

// LatestReport returns the most recent report; ok=false means none exists
// yet, which is a success result, not an error.
func (a *Auditor) LatestReport(ctx context.Context) (AuditReport, bool, error) {
	return a.reports.Latest(ctx)
}

func (a *Auditor) Statistics(ctx context.Context) (Statistics, error) {
	return a.reports.Stats(ctx)
}

// ScheduleAudit persists a recurring audit schedule. Unrecognized
// frequencies default to weekly.
func (a *Auditor) ScheduleAudit(ctx context.Context, frequency string) (schedule.Record, error) {
	frequency = schedule.Normalize(frequency)
	rec := schedule.Record{
		ID:        uuid.NewString(),
		JobType:   "minimization_audit",
		Frequency: frequency,
		NextRun:   schedule.NextRun(frequency, a.now().UTC()),
	}
	if err := a.schedules.Upsert(ctx, rec); err != nil {
		return schedule.Record{}, err
	}
	return rec, nil
}

func buildRecommendation(pol policy.RetentionPolicy, findings CategoryFindings) Recommendation {
	severity := SeverityLow
	switch {
	case findings.Count >= 100:
		severity = SeverityHigh
	case findings.Count >= 25:
		severity = SeverityMedium
	}

	action := "Review and delete manually."
	if pol.AutoDelete {
		action = "Run retention cleanup for this data type."
	}

	return Recommendation{
		Severity: severity,
		Category: pol.Category,
		Title:    fmt.Sprintf("%d %s records past retention", findings.Count, pol.Category),
		Description: fmt.Sprintf(
			"%d records of type %s are older than the %d-day retention window (~%.1f MB).",
			findings.Count, pol.DataType, pol.RetentionDays, float64(findings.EstimatedSize)/(1024*1024),
		),
		Action:        action,
		AffectedCount: findings.Count,
	}
}
