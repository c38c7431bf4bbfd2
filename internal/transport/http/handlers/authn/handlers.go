package authnhandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lifecycle/internal/auth"
	"lifecycle/internal/transport/http/api"
	"lifecycle/internal/transport/http/middleware"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	Secret       string
	AdminEmail   string
	PasswordHash string
}

func NewHandler(secret, adminEmail, passwordHash string) *Handler {
	return &Handler{Secret: secret, AdminEmail: adminEmail, PasswordHash: passwordHash}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/token", h.handleToken)
}

type tokenPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload tokenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	if payload.Email != h.AdminEmail || auth.CheckPassword(h.PasswordHash, payload.Password) != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{Email: payload.Email}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_generation_failed", "failed to generate token", requestID)
		return
	}

	api.Success(w, tokenResponse{Token: token, ExpiresAt: time.Now().Add(tokenTTL)}, requestID)
}
