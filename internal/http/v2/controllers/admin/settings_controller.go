package admin

import (
	"net/http"

	dto "github.com/dropDatabas3/mailrelay/internal/http/v2/dto/admin"
	httperrors "github.com/dropDatabas3/mailrelay/internal/http/v2/errors"
	svc "github.com/dropDatabas3/mailrelay/internal/http/v2/services/admin"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/settings"
)

// SettingsController handles GET/POST /v2/admin/smtp/settings.
type SettingsController struct {
	service svc.SettingsService
}

// NewSettingsController creates a new settings controller.
func NewSettingsController(service svc.SettingsService) *SettingsController {
	return &SettingsController{service: service}
}

// Get handles GET /v2/admin/smtp/settings.
func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SettingsController.Get"))

	resp, err := c.service.Get(ctx)
	if err != nil {
		log.Error("load settings error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, resp)
}

// Save handles POST /v2/admin/smtp/settings. Acepta form o JSON.
func (c *SettingsController) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SettingsController.Save"))

	in, err := parseSettingsInput(w, r)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}

	resp, err := c.service.Save(ctx, in)
	if err != nil {
		if ve, ok := settings.AsValidation(err); ok {
			httperrors.WriteError(w, httperrors.ErrValidation.WithFields(ve.Fields))
			return
		}
		log.Error("save settings error", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, resp)
}

// parseSettingsInput arma settings.Input. Acá se resuelve la semántica de
// checkbox: auth/debug ausentes valen false, presentes (cualquier valor) true.
func parseSettingsInput(w http.ResponseWriter, r *http.Request) (settings.Input, error) {
	if isForm(r) {
		if err := parseForm(w, r); err != nil {
			return settings.Input{}, httperrors.ErrBadRequest.WithDetail("invalid form body")
		}
		f := r.PostForm
		_, hasPassword := f["password"]
		return settings.Input{
			Host:         f.Get("host"),
			Port:         f.Get("port"),
			Encryption:   f.Get("encryption"),
			Auth:         f.Has("auth"),
			Username:     f.Get("username"),
			Password:     f.Get("password"),
			KeepPassword: !hasPassword,
			FromEmail:    f.Get("from_email"),
			FromName:     f.Get("from_name"),
			Debug:        f.Has("debug"),
		}, nil
	}

	var req dto.SMTPSettingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return settings.Input{}, err
	}
	in := settings.Input{
		Host:       req.Host,
		Port:       string(req.Port),
		Encryption: req.Encryption,
		Auth:       req.Auth != nil && *req.Auth,
		Username:   req.Username,
		FromEmail:  req.FromEmail,
		FromName:   req.FromName,
		Debug:      req.Debug != nil && *req.Debug,
	}
	if req.Password != nil {
		in.Password = *req.Password
	} else {
		in.KeepPassword = true
	}
	return in, nil
}
