package admin

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/mailrelay/internal/http/v2/dto/admin"
	httperrors "github.com/dropDatabas3/mailrelay/internal/http/v2/errors"
	mw "github.com/dropDatabas3/mailrelay/internal/http/v2/middlewares"
	svc "github.com/dropDatabas3/mailrelay/internal/http/v2/services/admin"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
)

// AuthController handles admin login and CSRF issuance.
type AuthController struct {
	service svc.AuthService
}

// NewAuthController creates a new admin auth controller.
func NewAuthController(service svc.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Login handles POST /v2/admin/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Login"))

	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
		return
	}

	resp, err := c.service.Login(ctx, req)
	if err != nil {
		if errors.Is(err, svc.ErrInvalidCredentials) {
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
			return
		}
		log.Error("login error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, resp)
}

// CSRF handles GET /v2/admin/csrf.
func (c *AuthController) CSRF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.CSRF"))

	cl, ok := mw.GetClaims(ctx)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	resp, err := c.service.IssueCSRF(ctx, cl)
	if err != nil {
		if errors.Is(err, svc.ErrNoSession) {
			httperrors.WriteError(w, httperrors.ErrTokenInvalid.WithDetail("token has no session"))
			return
		}
		log.Error("issue csrf error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, resp)
}
