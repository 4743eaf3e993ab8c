// Package api implements the vocanote REST API using chi.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/vocanote/internal/auth"
)

// AuthMiddleware returns middleware that requires an
// "Authorization: Bearer <token>" header accepted by v. The decoded
// identity is stored in the request context.
func AuthMiddleware(v auth.Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("No token provided"))
				return
			}
			id, err := v.Validate(token)
			if err != nil {
				slog.Debug("token rejected",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("error", err.Error()))
				writeJSON(w, http.StatusUnauthorized, errorBody("Invalid token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// identity returns the caller established by AuthMiddleware.
func identity(r *http.Request) *auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
