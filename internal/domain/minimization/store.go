package minimization

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGReportStore struct {
	DB *pgxpool.Pool
}

func NewPGReportStore(db *pgxpool.Pool) *PGReportStore {
	return &PGReportStore{DB: db}
}

func (s *PGReportStore) Append(ctx context.Context, report AuditReport) error {
	recsJSON, err := json.Marshal(report.Recommendations)
	if err != nil {
		return err
	}
	byCategoryJSON, err := json.Marshal(report.DataByCategory)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_reports (id, audit_date, total_issues, recommendations_json, by_category_json, estimated_savings_mb)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, report.ID, report.AuditDate, report.TotalIssues, recsJSON, byCategoryJSON, report.EstimatedSpaceSavingsMB)
	return err
}

func (s *PGReportStore) Latest(ctx context.Context) (AuditReport, bool, error) {
	var report AuditReport
	var recsJSON, byCategoryJSON []byte
	err := s.DB.QueryRow(ctx, `
    SELECT id, audit_date, total_issues, recommendations_json, by_category_json, estimated_savings_mb
    FROM audit_reports
    ORDER BY audit_date DESC
    LIMIT 1
  `).Scan(&report.ID, &report.AuditDate, &report.TotalIssues, &recsJSON, &byCategoryJSON, &report.EstimatedSpaceSavingsMB)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuditReport{}, false, nil
	}
	if err != nil {
		return AuditReport{}, false, err
	}
	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &report.Recommendations); err != nil {
			return AuditReport{}, false, err
		}
	}
	if len(byCategoryJSON) > 0 {
		if err := json.Unmarshal(byCategoryJSON, &report.DataByCategory); err != nil {
			return AuditReport{}, false, err
		}
	}
	return report, true, nil
}

func (s *PGReportStore) Stats(ctx context.Context) (Statistics, error) {
	var stats Statistics
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(estimated_savings_mb), 0)
    FROM audit_reports
  `).Scan(&stats.ReportCount, &stats.TotalEstimatedSavingsMB)
	if err != nil {
		return Statistics{}, err
	}
	if stats.ReportCount == 0 {
		return stats, nil
	}

	latest, ok, err := s.Latest(ctx)
	if err != nil {
		return Statistics{}, err
	}
	if ok {
		date := latest.AuditDate
		stats.LastAuditDate = &date
		stats.LastTotalIssues = latest.TotalIssues
	}
	return stats, nil
}
