package deletionhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/domain/audit"
	"lifecycle/internal/domain/deletion"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

type Handler struct {
	Service *deletion.Service
	Audit   *audit.Service
}

func NewHandler(service *deletion.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireAdmin).Post("/deletion-requests", h.handleRequest)
	r.With(middleware.RequireAdmin).Get("/deletion-requests/{requestID}", h.handleGet)
	r.With(middleware.RequireAdmin).Post("/deletion-requests/{requestID}/execute", h.handleExecute)
	r.With(middleware.RequireAdmin).Post("/deletion-requests/{requestID}/cancel", h.handleCancel)
}

type requestPayload struct {
	SubjectID string `json:"subjectId"`
	deletion.RequestOptions
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	var payload requestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if strings.TrimSpace(payload.SubjectID) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "subjectId is required", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.RequestDeletion(r.Context(), payload.SubjectID, payload.RequestOptions)
	if err != nil {
		h.fail(w, r, err, "deletion_request_failed")
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionDeletionRequest, "deletion_request", result.Request.ID,
			middleware.GetRequestID(r.Context()), nil, map[string]any{
				"subjectId":     payload.SubjectID,
				"immediate":     payload.Immediate,
				"collaborators": result.AffectedCollaboratorCount,
			})
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		h.fail(w, r, err, "deletion_request_read_failed")
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

type subjectPayload struct {
	SubjectID string `json:"subjectId"`
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	var payload subjectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Service.Execute(r.Context(), payload.SubjectID, requestID)
	if err != nil {
		h.fail(w, r, err, "deletion_execute_failed")
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionDeletionExecute, "deletion_request", requestID,
			middleware.GetRequestID(r.Context()), nil, result)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	var payload subjectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Service.Cancel(r.Context(), payload.SubjectID, requestID)
	if err != nil {
		h.fail(w, r, err, "deletion_cancel_failed")
		return
	}

	if h.Audit != nil {
		admin, _ := middleware.GetAdmin(r.Context())
		_ = h.Audit.Record(r.Context(), admin.Email, audit.ActionDeletionCancel, "deletion_request", requestID,
			middleware.GetRequestID(r.Context()), nil, nil)
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, deletion.ErrSubjectNotFound):
		api.Fail(w, http.StatusNotFound, "subject_not_found", "subject not found", requestID)
	case errors.Is(err, deletion.ErrRequestNotFound):
		api.Fail(w, http.StatusNotFound, "request_not_found", "deletion request not found", requestID)
	case errors.Is(err, deletion.ErrNotRequestOwner):
		api.Fail(w, http.StatusForbidden, "not_request_owner", "request does not belong to subject", requestID)
	case errors.Is(err, deletion.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, deletion.ErrLegalHold):
		api.Fail(w, http.StatusConflict, "legal_hold_active", "subject is under an active legal hold", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, fallbackCode, "operation failed", requestID)
	}
}
