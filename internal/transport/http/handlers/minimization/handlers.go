package minimizationhandler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/domain/minimization"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

type Handler struct {
	Auditor *minimization.Auditor
	Audit   *audit.Service
}

func NewHandler(auditor *minimization.Auditor, auditSvc *audit.Service) *Handler {
	return &Handler{Auditor: auditor, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Post("/audits", h.handleRun)
	r.With(middleware.RequireAdmin).Get("/audits/latest", h.handleLatest)
	r.With(middleware.RequireAdmin).Get("/audits/latest/pdf", h.handleLatestPDF)
	r.With(middleware.RequireAdmin).Get("/audits/statistics", h.handleStatistics)
	r.With(middleware.RequireAdmin).Post("/audits/schedule", h.handleSchedule)
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	var opts minimization.Options
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
			return
		}
	}

	report, err := h.Auditor.RunAudit(r.Context(), opts)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_failed", "audit could not be persisted", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionAuditRun, "audit_report", report.ID,
			middleware.GetRequestID(r.Context()), nil, map[string]any{"totalIssues": report.TotalIssues})
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	report, ok, err := h.Auditor.LatestReport(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_read_failed", "failed to read audit reports", middleware.GetRequestID(r.Context()))
		return
	}
	if !ok {
		api.Success(w, map[string]any{"report": nil, "message": "no audit has run yet"}, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLatestPDF(w http.ResponseWriter, r *http.Request) {
	report, ok, err := h.Auditor.LatestReport(r.Context())
	if err != nil || !ok {
		api.Fail(w, http.StatusNotFound, "report_not_found", "no audit report available", middleware.GetRequestID(r.Context()))
		return
	}

	pdfBytes, err := minimization.ReportPDF(report)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "pdf_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=minimization-audit-%s.pdf", report.AuditDate.Format("2006-01-02")))
	_, _ = w.Write(pdfBytes)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Auditor.Statistics(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "statistics_failed", "failed to read audit statistics", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

type schedulePayload struct {
	Frequency string `json:"frequency"`
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var payload schedulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	rec, err := h.Auditor.ScheduleAudit(r.Context(), payload.Frequency)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "schedule_failed", "failed to persist audit schedule", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}
