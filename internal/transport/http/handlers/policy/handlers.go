package policyhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/domain/policy"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

type Handler struct {
	Catalog policy.Catalog
	Audit   *audit.Service
}

func NewHandler(catalog policy.Catalog, auditSvc *audit.Service) *Handler {
	return &Handler{Catalog: catalog, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Get("/policies", h.handleList)
	r.With(middleware.RequireAdmin).Put("/policies/{dataType}", h.handleUpdate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	policies := h.Catalog.Get()
	out := make([]policy.RetentionPolicy, 0, len(policies))
	for _, pol := range policies {
		out = append(out, pol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DataType < out[j].DataType })
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	dataType := chi.URLParam(r, "dataType")

	var patch policy.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	before, _ := h.Catalog.Get()[dataType]
	updated, err := h.Catalog.Update(dataType, patch)
	if errors.Is(err, policy.ErrUnknownDataType) {
		api.Fail(w, http.StatusNotFound, "policy_not_found", "unknown data type", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "policy_update_failed", "failed to update policy", middleware.GetRequestID(r.Context()))
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionPolicyUpdate, "retention_policy", dataType,
			middleware.GetRequestID(r.Context()), before, updated)
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}
