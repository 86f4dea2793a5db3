package admin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/mailrelay/internal/email"
	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
	"github.com/dropDatabas3/mailrelay/internal/metrics"
	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/settings"
	"github.com/dropDatabas3/mailrelay/internal/util"
)

// TestRequest es una solicitud de envío de prueba ya extraída del request HTTP.
type TestRequest struct {
	// Caller es nil si no hubo token válido.
	Caller    *jwtx.AdminAccessClaims
	CSRFToken string
	Address   string
	// Malformed indica que el body no se pudo leer. Se reporta recién
	// después de CSRF y privilegio.
	Malformed bool
}

// Result es el resultado estructurado del envío de prueba.
type Result struct {
	Success bool
	Data    string
	Status  int // HTTP status sugerido
}

// CSRFVerifier valida el token CSRF de una sesión.
type CSRFVerifier interface {
	Verify(ctx context.Context, sessionID, token string) error
}

// MessageSender es la primitiva de envío.
type MessageSender interface {
	SendMessage(ctx context.Context, msg email.Message) error
}

// MailingService maneja el envío de prueba.
type MailingService interface {
	HandleTestRequest(ctx context.Context, req TestRequest) Result
}

// MailingDeps son las dependencias del MailingService.
type MailingDeps struct {
	CSRF     CSRFVerifier
	Mailer   MessageSender
	Settings email.SettingsLoader // para saber si loguear el error completo
	SiteName string
}

type mailingService struct {
	deps MailingDeps
}

// NewMailingService creates a new MailingService.
func NewMailingService(deps MailingDeps) MailingService {
	return &mailingService{deps: deps}
}

const msgUnauthorized = "Unauthorized."

// HandleTestRequest verifica CSRF y privilegio, valida la dirección y manda
// el correo de prueba. Nunca devuelve error ni deja escapar un panic: todo
// resultado es un Result.
func (s *mailingService) HandleTestRequest(ctx context.Context, req TestRequest) (res Result) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin.mailing"),
		logger.Op("HandleTestRequest"),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("test send panic", logger.Any("panic", r))
			metrics.RecordTestSend("failed")
			res = Result{Data: "The test email could not be sent.", Status: http.StatusInternalServerError}
		}
	}()

	sid := ""
	if req.Caller != nil {
		sid = req.Caller.SessionID
	}
	if err := s.deps.CSRF.Verify(ctx, sid, req.CSRFToken); err != nil {
		log.Warn("test send rejected: csrf", logger.Err(err))
		metrics.RecordTestSend("forbidden")
		return Result{Data: msgUnauthorized, Status: http.StatusForbidden}
	}
	if req.Caller == nil || !req.Caller.IsAdmin() {
		log.Warn("test send rejected: not admin")
		metrics.RecordTestSend("forbidden")
		return Result{Data: msgUnauthorized, Status: http.StatusForbidden}
	}

	if req.Malformed {
		metrics.RecordTestSend("invalid")
		return Result{Data: "Invalid request body.", Status: http.StatusBadRequest}
	}

	to := strings.TrimSpace(req.Address)
	if !settings.IsEmail(to) {
		metrics.RecordTestSend("invalid")
		return Result{Data: "Please provide a valid email address.", Status: http.StatusBadRequest}
	}

	msg := email.GetTestEmailContent(s.deps.SiteName, time.Now().UTC().Format(time.RFC1123))
	if err := s.deps.Mailer.SendMessage(ctx, msg.Message(to)); err != nil {
		metrics.RecordTestSend("failed")
		diag := email.DiagnoseSMTP(err)
		if s.debugEnabled(ctx) {
			log.Error("test send failed", logger.Email(to), logger.String("diag", diag.Code), logger.Err(err))
		} else {
			log.Warn("test send failed", logger.Email(util.MaskEmail(to)), logger.String("diag", diag.Code))
		}
		return Result{Data: diag.Message(), Status: http.StatusOK}
	}

	metrics.RecordTestSend("sent")
	log.Info("test email sent", logger.Email(util.MaskEmail(to)))
	return Result{Success: true, Data: fmt.Sprintf("Test email sent to %s.", to), Status: http.StatusOK}
}

func (s *mailingService) debugEnabled(ctx context.Context) bool {
	if s.deps.Settings == nil {
		return false
	}
	rec, err := s.deps.Settings.Load(ctx)
	return err == nil && rec.Debug
}
