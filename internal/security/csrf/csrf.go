// Package csrf emite y verifica tokens CSRF atados a una sesión de admin.
// En el cache se guarda sha256(token), nunca el token en claro.
package csrf

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/mailrelay/internal/cache"
	tokens "github.com/dropDatabas3/mailrelay/internal/security/token"
)

var ErrInvalidToken = errors.New("csrf: token missing or mismatch")

const (
	// HeaderName y FormField son dónde el endpoint busca el token.
	HeaderName = "X-CSRF-Token"
	FormField  = "_csrf"
)

// Manager emite tokens por sesión y los valida.
type Manager struct {
	cache cache.Client
	ttl   time.Duration
}

func NewManager(c cache.Client, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{cache: c, ttl: ttl}
}

func key(sessionID string) string { return "csrf:" + sessionID }

// Issue genera un token nuevo para sessionID. Reemplaza al anterior.
func (m *Manager) Issue(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", errors.New("csrf: empty session id")
	}
	tok, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}
	if err := m.cache.Set(ctx, key(sessionID), tokens.SHA256Base64URL(tok), m.ttl); err != nil {
		return "", err
	}
	return tok, nil
}

// Verify compara token con el emitido para sessionID en tiempo constante.
func (m *Manager) Verify(ctx context.Context, sessionID, token string) error {
	token = strings.TrimSpace(token)
	if sessionID == "" || token == "" {
		return ErrInvalidToken
	}
	want, err := m.cache.Get(ctx, key(sessionID))
	if err != nil {
		if cache.IsNotFound(err) {
			return ErrInvalidToken
		}
		return err
	}
	got := tokens.SHA256Base64URL(token)
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
