package middleware

import (
	"context"
	"net/http"
	"strings"

	"lifecycle/internal/auth"
	"lifecycle/internal/transport/http/api"
)

type ctxKey string

const ctxKeyAdmin ctxKey = "admin"

type AdminContext struct {
	Email string
}

// Auth attaches admin claims from a bearer token when present. Route-level
// RequireAdmin decides whether the request may proceed.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, AdminContext{Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetAdmin(ctx context.Context) (AdminContext, bool) {
	admin, ok := ctx.Value(ctxKeyAdmin).(AdminContext)
	return admin, ok
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetAdmin(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "admin authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
