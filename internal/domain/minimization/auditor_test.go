package minimization

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifecycle/internal/domain/policy"
	"lifecycle/internal/domain/scan"
	"lifecycle/internal/domain/schedule"
)

type stubCatalog struct{}

func (stubCatalog) Get() map[string]policy.RetentionPolicy { return policy.Defaults() }

func (stubCatalog) Update(dataType string, patch policy.Patch) (policy.RetentionPolicy, error) {
	return policy.RetentionPolicy{}, errors.New("not implemented")
}

type stubScanner struct {
	items map[string][]scan.Item
	err   map[string]error
}

func (s *stubScanner) FindEligible(ctx context.Context, pol policy.RetentionPolicy, maxItems int) ([]scan.Item, error) {
	if err := s.err[pol.DataType]; err != nil {
		return nil, err
	}
	return s.items[pol.DataType], nil
}

type memReportStore struct {
	reports []AuditReport
	err     error
}

func (s *memReportStore) Append(ctx context.Context, report AuditReport) error {
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, report)
	return nil
}

func (s *memReportStore) Latest(ctx context.Context) (AuditReport, bool, error) {
	if len(s.reports) == 0 {
		return AuditReport{}, false, nil
	}
	return s.reports[len(s.reports)-1], true, nil
}

func (s *memReportStore) Stats(ctx context.Context) (Statistics, error) {
	stats := Statistics{ReportCount: len(s.reports)}
	for _, r := range s.reports {
		stats.TotalEstimatedSavingsMB += r.EstimatedSpaceSavingsMB
	}
	if latest, ok, _ := s.Latest(ctx); ok {
		stats.LastAuditDate = &latest.AuditDate
		stats.LastTotalIssues = latest.TotalIssues
	}
	return stats, nil
}

type memScheduleStore struct {
	records map[string]schedule.Record
}

func (s *memScheduleStore) Upsert(ctx context.Context, rec schedule.Record) error {
	if s.records == nil {
		s.records = map[string]schedule.Record{}
	}
	s.records[rec.JobType] = rec
	return nil
}

func (s *memScheduleStore) Get(ctx context.Context, jobType string) (schedule.Record, bool, error) {
	rec, ok := s.records[jobType]
	return rec, ok, nil
}

func sized(dataType string, n int, sizeBytes int64) []scan.Item {
	out := make([]scan.Item, n)
	for i := range out {
		out[i] = scan.Item{ID: dataType, DataType: dataType, SizeBytes: sizeBytes}
	}
	return out
}

func TestRunAuditRecordsFindings(t *testing.T) {
	scanner := &stubScanner{items: map[string][]scan.Item{
		policy.DataTypePageViewData:   sized(policy.DataTypePageViewData, 30, 512),
		policy.DataTypeExportRequests: sized(policy.DataTypeExportRequests, 2, 2*1024*1024),
	}}
	reports := &memReportStore{}
	auditor := NewAuditor(stubCatalog{}, scanner, reports, &memScheduleStore{}, nil)

	report, err := auditor.RunAudit(context.Background(), Options{})
	if err != nil {
		t.Fatalf("audit error: %v", err)
	}
	if report.TotalIssues != 32 {
		t.Fatalf("total issues: %d", report.TotalIssues)
	}
	if len(report.Recommendations) != 2 {
		t.Fatalf("expected a recommendation per non-empty category, got %d", len(report.Recommendations))
	}
	if report.DataByCategory["Usage Analytics"].Count != 30 {
		t.Fatalf("category findings: %+v", report.DataByCategory)
	}
	// 30*512B + 2*2MiB, rounded to 2 decimals.
	if report.EstimatedSpaceSavingsMB != 4.01 {
		t.Fatalf("savings: %v", report.EstimatedSpaceSavingsMB)
	}
	if len(reports.reports) != 1 {
		t.Fatal("report not persisted")
	}
}

func TestRunAuditToleratesSubScanFailure(t *testing.T) {
	scanner := &stubScanner{
		items: map[string][]scan.Item{policy.DataTypeSystemLogs: sized(policy.DataTypeSystemLogs, 3, 256)},
		err:   map[string]error{policy.DataTypePageViewData: errors.New("timeout")},
	}
	auditor := NewAuditor(stubCatalog{}, scanner, &memReportStore{}, &memScheduleStore{}, nil)

	report, err := auditor.RunAudit(context.Background(), Options{})
	if err != nil {
		t.Fatalf("a failed sub-scan must not fail the audit: %v", err)
	}
	if report.DataByCategory["Usage Analytics"].ScanError == "" {
		t.Fatal("expected scan error recorded for the failed category")
	}
	if report.DataByCategory["System Logs"].Count != 3 {
		t.Fatalf("healthy category lost: %+v", report.DataByCategory)
	}
}

func TestRunAuditSeverityThresholds(t *testing.T) {
	scanner := &stubScanner{items: map[string][]scan.Item{
		policy.DataTypePageViewData:        sized(policy.DataTypePageViewData, 150, 512),
		policy.DataTypeExportRequests:      sized(policy.DataTypeExportRequests, 30, 1024),
		policy.DataTypeNotificationRecords: sized(policy.DataTypeNotificationRecords, 5, 1024),
	}}
	auditor := NewAuditor(stubCatalog{}, scanner, &memReportStore{}, &memScheduleStore{}, nil)

	report, err := auditor.RunAudit(context.Background(), Options{})
	if err != nil {
		t.Fatalf("audit error: %v", err)
	}

	bySeverity := map[string]int{}
	for _, rec := range report.Recommendations {
		bySeverity[rec.Severity]++
	}
	if bySeverity[SeverityHigh] != 1 || bySeverity[SeverityMedium] != 1 || bySeverity[SeverityLow] != 1 {
		t.Fatalf("severity spread wrong: %+v", bySeverity)
	}
}

func TestRunAuditPersistFailure(t *testing.T) {
	auditor := NewAuditor(stubCatalog{}, &stubScanner{}, &memReportStore{err: errors.New("disk full")}, &memScheduleStore{}, nil)

	if _, err := auditor.RunAudit(context.Background(), Options{}); err == nil {
		t.Fatal("expected persistence failure")
	}
}

func TestLatestReportNoneYet(t *testing.T) {
	auditor := NewAuditor(stubCatalog{}, &stubScanner{}, &memReportStore{}, &memScheduleStore{}, nil)

	_, ok, err := auditor.LatestReport(context.Background())
	if err != nil {
		t.Fatalf("latest error: %v", err)
	}
	if ok {
		t.Fatal("expected no report yet")
	}
}

func TestScheduleAuditNormalizesFrequency(t *testing.T) {
	schedules := &memScheduleStore{}
	auditor := NewAuditor(stubCatalog{}, &stubScanner{}, &memReportStore{}, schedules, nil)
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	auditor.now = func() time.Time { return fixed }

	rec, err := auditor.ScheduleAudit(context.Background(), "hourly")
	if err != nil {
		t.Fatalf("schedule error: %v", err)
	}
	if rec.Frequency != schedule.FrequencyWeekly {
		t.Fatalf("expected weekly fallback, got %s", rec.Frequency)
	}
	if !rec.NextRun.Equal(fixed.AddDate(0, 0, 7)) {
		t.Fatalf("next run: %v", rec.NextRun)
	}
	if _, ok, _ := schedules.Get(context.Background(), "minimization_audit"); !ok {
		t.Fatal("schedule not persisted")
	}
}
