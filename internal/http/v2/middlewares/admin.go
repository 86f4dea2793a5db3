package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/mailrelay/internal/http/v2/errors"
)

// RequireAdmin valida que las claims del contexto tengan el rol "admin".
// Debe ir después de RequireAuth.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cl, ok := GetClaims(r.Context())
			if !ok {
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("no claims in context"))
				return
			}
			if !cl.IsAdmin() {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("admin required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
