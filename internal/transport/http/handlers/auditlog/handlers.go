package auditloghandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

type Handler struct {
	Audit *audit.Service
}

func NewHandler(auditSvc *audit.Service) *Handler {
	return &Handler{Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Get("/audit-events", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
	}
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	events, err := h.Audit.List(r.Context(), filter, limit, offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
