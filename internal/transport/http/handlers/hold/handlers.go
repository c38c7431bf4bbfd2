package holdhandler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/domain/hold"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

type Handler struct {
	Registry *hold.Registry
	Audit    *audit.Service
}

func NewHandler(registry *hold.Registry, auditSvc *audit.Service) *Handler {
	return &Handler{Registry: registry, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Get("/legal-holds", h.handleList)
	r.With(middleware.RequireAdmin).Post("/legal-holds", h.handleCreate)
	r.With(middleware.RequireAdmin).Delete("/legal-holds/{holdID}", h.handleRemove)
}

type createPayload struct {
	SubjectID string     `json:"subjectId"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	holds, err := h.Registry.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hold_list_failed", "failed to list legal holds", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, holds, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.SubjectID) == "" || strings.TrimSpace(payload.Reason) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "subjectId and reason are required", middleware.GetRequestID(r.Context()))
		return
	}

	created, err := h.Registry.Add(r.Context(), payload.SubjectID, payload.Reason, payload.ExpiresAt)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hold_create_failed", "failed to create legal hold", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionHoldAdd, "legal_hold", created.ID,
			middleware.GetRequestID(r.Context()), nil, created)
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "holdID")
	if err := h.Registry.Remove(r.Context(), holdID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "hold_remove_failed", "failed to remove legal hold", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionHoldRemove, "legal_hold", holdID,
			middleware.GetRequestID(r.Context()), nil, nil)
	}
	api.Success(w, map[string]any{"id": holdID, "active": false}, middleware.GetRequestID(r.Context()))
}
