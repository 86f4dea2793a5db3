package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/mailrelay/internal/http/v2/errors"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/security/csrf"
)

// CSRFToken extrae el token del header X-CSRF-Token o del campo _csrf del form.
func CSRFToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(csrf.HeaderName)); v != "" {
		return v
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") ||
		strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return strings.TrimSpace(r.FormValue(csrf.FormField))
	}
	return ""
}

// RequireCSRF verifica, para métodos inseguros, que el token coincida con el
// emitido para la sesión (sid) del JWT. Debe ir después de RequireAuth.
func RequireCSRF(m *csrf.Manager) Middleware {
	isUnsafe := func(method string) bool {
		switch strings.ToUpper(method) {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			return true
		default:
			return false
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isUnsafe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			cl, _ := GetClaims(r.Context())
			if err := m.Verify(r.Context(), cl.SessionID, CSRFToken(r)); err != nil {
				logger.From(r.Context()).Warn("csrf check failed", logger.Op("RequireCSRF"), logger.Err(err))
				errors.WriteError(w, errors.ErrInvalidCSRF)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
