// Package router arma el árbol de rutas HTTP con chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	adminctrl "github.com/dropDatabas3/mailrelay/internal/http/v2/controllers/admin"
	healthctrl "github.com/dropDatabas3/mailrelay/internal/http/v2/controllers/health"
	httperrors "github.com/dropDatabas3/mailrelay/internal/http/v2/errors"
	mw "github.com/dropDatabas3/mailrelay/internal/http/v2/middlewares"
	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
	"github.com/dropDatabas3/mailrelay/internal/metrics"
	"github.com/dropDatabas3/mailrelay/internal/security/csrf"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Issuer *jwtx.Issuer
	CSRF   *csrf.Manager

	Auth     *adminctrl.AuthController
	Settings *adminctrl.SettingsController
	Mailing  *adminctrl.MailingController
	Health   *healthctrl.HealthController

	// MetricsHandler es opcional: si es nil no se expone /metrics.
	MetricsHandler http.Handler
}

// New registra todas las rutas y devuelve el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		metrics.WithMetrics,
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.New(http.StatusNotFound, "NOT_FOUND", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	registerHealthRoutes(r, deps)
	registerAdminRoutes(r, deps)
	return r
}

// registerHealthRoutes: sin auth ni logging (muy frecuentes).
func registerHealthRoutes(r chi.Router, deps Deps) {
	if deps.Health != nil {
		r.Get("/readyz", deps.Health.Readyz)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
}

func registerAdminRoutes(r chi.Router, deps Deps) {
	r.Route("/v2/admin", func(r chi.Router) {
		r.Use(
			mw.WithLogging(),
			mw.WithSecurityHeaders(),
			mw.WithNoStore(),
		)

		// POST /v2/admin/login - público
		r.Post("/login", deps.Auth.Login)

		// POST /v2/admin/smtp/test - la identidad se chequea en el service
		// después del CSRF, así que acá sólo se intenta parsear el token.
		r.Method(http.MethodPost, "/smtp/test", mw.Chain(
			http.HandlerFunc(deps.Mailing.SendTest),
			mw.OptionalAuth(deps.Issuer),
		))

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Issuer), mw.RequireAdmin())

			// GET /v2/admin/csrf
			r.Get("/csrf", deps.Auth.CSRF)

			// GET/POST /v2/admin/smtp/settings
			r.Get("/smtp/settings", deps.Settings.Get)
			r.Method(http.MethodPost, "/smtp/settings", mw.Chain(
				http.HandlerFunc(deps.Settings.Save),
				mw.RequireCSRF(deps.CSRF),
			))
		})
	})
}
