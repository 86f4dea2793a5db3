package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/mailrelay/internal/config"
	dto "github.com/dropDatabas3/mailrelay/internal/http/v2/dto/admin"
	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/security/csrf"
	"github.com/dropDatabas3/mailrelay/internal/security/password"
	"github.com/dropDatabas3/mailrelay/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("token has no session id")
)

// AuthService autentica admins declarados en config y emite tokens CSRF.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	IssueCSRF(ctx context.Context, caller jwtx.AdminAccessClaims) (*dto.CSRFResponse, error)
}

type authService struct {
	admins  map[string]config.Admin // por email en minúsculas
	issuer  *jwtx.Issuer
	csrf    *csrf.Manager
	csrfTTL time.Duration
	// dummyHash iguala el costo de login para emails desconocidos
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(admins []config.Admin, issuer *jwtx.Issuer, m *csrf.Manager, csrfTTL time.Duration) AuthService {
	idx := make(map[string]config.Admin, len(admins))
	for _, a := range admins {
		idx[strings.ToLower(strings.TrimSpace(a.Email))] = a
	}
	dummy, _ := password.Hash(password.Default, "dummy-password-for-timing")
	return &authService{admins: idx, issuer: issuer, csrf: m, csrfTTL: csrfTTL, dummyHash: dummy}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.auth"),
		logger.Op("Login"),
	)

	key := strings.ToLower(strings.TrimSpace(req.Email))
	a, ok := s.admins[key]
	if !ok {
		_ = password.Verify(req.Password, s.dummyHash)
		log.Info("login failed", logger.Email(util.MaskEmail(key)))
		return nil, ErrInvalidCredentials
	}
	if !password.Verify(req.Password, a.PasswordHash) {
		log.Info("login failed", logger.Email(util.MaskEmail(key)))
		return nil, ErrInvalidCredentials
	}

	roles := a.Roles
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	sub := a.ID
	if sub == "" {
		sub = key
	}
	tok, exp, err := s.issuer.IssueAdminAccess(jwtx.AdminAccessClaims{AdminID: sub, Email: a.Email, Roles: roles})
	if err != nil {
		return nil, err
	}

	log.Info("admin logged in", logger.UserID(sub))
	return &dto.LoginResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
	}, nil
}

func (s *authService) IssueCSRF(ctx context.Context, caller jwtx.AdminAccessClaims) (*dto.CSRFResponse, error) {
	if caller.SessionID == "" {
		return nil, ErrNoSession
	}
	tok, err := s.csrf.Issue(ctx, caller.SessionID)
	if err != nil {
		return nil, err
	}
	return &dto.CSRFResponse{
		Token:     tok,
		Header:    csrf.HeaderName,
		FormField: csrf.FormField,
		ExpiresIn: int64(s.csrfTTL.Seconds()),
	}, nil
}
