package retentionhandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/domain/retention"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

type Handler struct {
	Executor *retention.Executor
	Logs     retention.LogStore
	Audit    *audit.Service
}

func NewHandler(executor *retention.Executor, logs retention.LogStore, auditSvc *audit.Service) *Handler {
	return &Handler{Executor: executor, Logs: logs, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Get("/retention/eligible", h.handleEligible)
	r.With(middleware.RequireAdmin).Post("/retention/cleanup", h.handleCleanup)
	r.With(middleware.RequireAdmin).Get("/retention/logs", h.handleLogs)
}

func (h *Handler) handleEligible(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Executor.FindEligibleForDeletion(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "eligibility_scan_failed", "failed to scan for eligible records", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	var opts retention.CleanupOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Executor.Execute(r.Context(), opts)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "cleanup_failed", "cleanup execution failed", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionCleanupRun, "cleanup", "",
			middleware.GetRequestID(r.Context()), opts, result)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logs.List(r.Context(), 20)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "log_list_failed", "failed to list cleanup logs", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, logs, middleware.GetRequestID(r.Context()))
}
