package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vadim/neo-studio/internal/httpx/response"
)

// RequireToken rejects requests that do not carry "Authorization: Bearer
// <token>". The studio acts on the backend with a single shared session, so
// this token is what stands between a caller and that account.
func RequireToken(token string) func(http.Handler) http.Handler {
	expected := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				response.Unauthorized(w, "authorization required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), expected) != 1 {
				response.Unauthorized(w, "invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
