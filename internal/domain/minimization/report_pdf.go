package minimization

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/jung-kurt/gofpdf"
)

// ReportPDF renders a report as a one-page compliance summary for the
// administrative export.
func ReportPDF(report AuditReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Data Minimization Audit")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Audit date: %s", report.AuditDate.Format("2006-01-02 15:04 MST")))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total issues: %d", report.TotalIssues))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Estimated space savings: %.2f MB", report.EstimatedSpaceSavingsMB))
	pdf.Ln(10)

	categories := make([]string, 0, len(report.DataByCategory))
	for category := range report.DataByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Findings by category")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	for _, category := range categories {
		findings := report.DataByCategory[category]
		line := fmt.Sprintf("%s: %d records (~%.1f MB)", category, findings.Count, float64(findings.EstimatedSize)/(1024*1024))
		if findings.ScanError != "" {
			line = fmt.Sprintf("%s: scan failed (%s)", category, findings.ScanError)
		}
		pdf.Cell(0, 7, line)
		pdf.Ln(6)
	}

	if len(report.Recommendations) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Recommendations")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 11)
		for _, rec := range report.Recommendations {
			pdf.Cell(0, 7, fmt.Sprintf("[%s] %s", rec.Severity, rec.Title))
			pdf.Ln(6)
			pdf.Cell(0, 7, fmt.Sprintf("    %s", rec.Action))
			pdf.Ln(6)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
