package email

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/mailrelay/internal/settings"
)

// SettingsLoader devuelve el registro vigente (copia).
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Record, error)
}

// Apply copia rec sobre t. No valida: un host o remitente vacío hace
// fallar el envío en el Deliverer.
func Apply(rec settings.Record, t *Transport) {
	t.SMTP = true
	t.Host = rec.Host
	t.Port = rec.Port
	t.SMTPAuth = true
	switch rec.Encryption {
	case settings.EncryptionSSL:
		t.Secure = SecureSSL
	case settings.EncryptionTLS:
		t.Secure = SecureTLS
	default:
		t.Secure = SecureNone
	}
	t.Username = rec.Username
	t.Password = rec.Password
	t.From = rec.FromEmail
	t.FromName = rec.FromName
	if rec.Debug && t.DebugLevel < DebugConversation {
		t.DebugLevel = DebugConversation
	}
}

// Applicator es el hook before-send que aplica la configuración guardada.
type Applicator struct {
	settings SettingsLoader
}

func NewApplicator(s SettingsLoader) *Applicator {
	return &Applicator{settings: s}
}

// OnBeforeSend carga el registro y lo aplica sobre t.
func (a *Applicator) OnBeforeSend(ctx context.Context, t *Transport) error {
	rec, err := a.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("email: load smtp settings: %w", err)
	}
	Apply(rec, t)
	return nil
}
