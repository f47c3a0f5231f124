package middleware

import (
	"io"
	"net/http"
	"strings"

	"tracknow/internal/auth"
	"tracknow/internal/domain"
	"tracknow/internal/logx"
)

type verifier interface {
	Verify(raw string) (domain.Actor, error)
}

// Authenticate resolves the bearer token into an actor stored in the request
// context. Browsers cannot set headers on WebSocket handshakes, so the token
// is also accepted in the access_token query parameter.
func Authenticate(v verifier, logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := v.Verify(bearer(r))
			if err != nil {
				logger.Debug("authentication failed",
					logx.String("method", r.Method),
					logx.String("path", r.URL.Path),
					logx.Err(err),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("WWW-Authenticate", `Bearer realm="tracknow"`)
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), a)))
		})
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return r.URL.Query().Get("access_token")
}
