package http

import (
	"net/http"
	"strings"

	"alumni-registry-backend/internal/logger"
	"alumni-registry-backend/internal/service"
)

// RequireAuth resolves the bearer token into a session and stores it on the request context.
func RequireAuth(authority service.AccountAuthority) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeError(w, service.ErrUnauthenticated)
				return
			}
			session, err := authority.SessionFromToken(r.Context(), token)
			if err != nil {
				logger.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(service.WithSession(r.Context(), session)))
		})
	}
}

func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
