// Package admin contiene los services de la superficie de admin.
package admin

import (
	"context"

	dto "github.com/dropDatabas3/mailrelay/internal/http/v2/dto/admin"
	"github.com/dropDatabas3/mailrelay/internal/metrics"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/settings"
)

// SettingsStore es lo que el service necesita del settings.Store.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Record, error)
	Save(ctx context.Context, in settings.Input) (settings.Record, error)
}

// SettingsService lee y guarda la configuración SMTP.
type SettingsService interface {
	Get(ctx context.Context) (*dto.SMTPSettingsResponse, error)
	// Save devuelve *settings.ValidationError si algún campo es inválido.
	Save(ctx context.Context, in settings.Input) (*dto.SMTPSettingsResponse, error)
}

type settingsService struct {
	store SettingsStore
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(s SettingsStore) SettingsService {
	return &settingsService{store: s}
}

func (s *settingsService) Get(ctx context.Context) (*dto.SMTPSettingsResponse, error) {
	rec, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return toResponse(rec), nil
}

func (s *settingsService) Save(ctx context.Context, in settings.Input) (*dto.SMTPSettingsResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.settings"),
		logger.Op("Save"),
	)

	rec, err := s.store.Save(ctx, in)
	if err != nil {
		if ve, ok := settings.AsValidation(err); ok {
			metrics.RecordSettingsSave("invalid")
			log.Info("smtp settings rejected", logger.Any("fields", ve.Fields))
			return nil, err
		}
		metrics.RecordSettingsSave("error")
		log.Error("smtp settings save failed", logger.Err(err))
		return nil, err
	}
	metrics.RecordSettingsSave("ok")
	return toResponse(rec), nil
}

func toResponse(rec settings.Record) *dto.SMTPSettingsResponse {
	return &dto.SMTPSettingsResponse{
		Host:        rec.Host,
		Port:        rec.Port,
		Encryption:  string(rec.Encryption),
		Auth:        rec.Auth,
		Username:    rec.Username,
		HasPassword: rec.Password != "",
		FromEmail:   rec.FromEmail,
		FromName:    rec.FromName,
		Debug:       rec.Debug,
	}
}
