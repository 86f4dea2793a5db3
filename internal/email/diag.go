package email

import (
	"errors"
	"net"
	"strings"

	"github.com/emersion/go-smtp"
)

// SMTPDiag clasifica un error de envío sin exponer el texto crudo del server.
type SMTPDiag struct {
	Code      string // config|auth|tls|dial|timeout|rate_limited|invalid_recipient|rejected|network|unknown
	Temporary bool
}

// Message es una descripción apta para mostrar al admin.
func (d SMTPDiag) Message() string {
	switch d.Code {
	case "config":
		return "SMTP is not fully configured. Check host and sender address."
	case "auth":
		return "The SMTP server rejected the credentials."
	case "tls":
		return "Could not establish a secure connection with the SMTP server."
	case "dial":
		return "Could not connect to the SMTP server."
	case "timeout":
		return "The SMTP server did not respond in time."
	case "rate_limited":
		return "The SMTP server is temporarily refusing mail. Try again later."
	case "invalid_recipient":
		return "The SMTP server rejected the recipient address."
	case "rejected":
		return "The SMTP server rejected the message."
	default:
		return "The test email could not be sent. Enable debug mode and check the logs."
	}
}

// DiagnoseSMTP analiza un error SMTP y retorna información de diagnóstico.
func DiagnoseSMTP(err error) SMTPDiag {
	if err == nil {
		return SMTPDiag{Code: "unknown"}
	}
	if errors.Is(err, ErrTransportNotConfigured) || errors.Is(err, ErrMissingHost) || errors.Is(err, ErrMissingFrom) {
		return SMTPDiag{Code: "config"}
	}
	if errors.Is(err, ErrAuthFailed) {
		return SMTPDiag{Code: "auth"}
	}
	if errors.Is(err, ErrStartTLSUnsupported) {
		return SMTPDiag{Code: "tls"}
	}
	var se *smtp.SMTPError
	if errors.As(err, &se) {
		if d, ok := diagFromCode(se); ok {
			return d
		}
	}
	s := strings.ToLower(err.Error())

	// timeouts
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return SMTPDiag{Code: "timeout", Temporary: true}
	}
	if strings.Contains(s, "timeout") || strings.Contains(s, "i/o timeout") {
		return SMTPDiag{Code: "timeout", Temporary: true}
	}

	// dial/conn/dns
	if strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connectex:") || // windows
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "dial tcp") {
		return SMTPDiag{Code: "dial", Temporary: true}
	}

	// tls/handshake/cert
	if strings.Contains(s, "x509:") ||
		strings.Contains(s, "tls") && (strings.Contains(s, "handshake") || strings.Contains(s, "certificate")) {
		return SMTPDiag{Code: "tls", Temporary: false}
	}

	// auth (credenciales/permiso)
	if strings.Contains(s, "5.7.8") || strings.Contains(s, "535") ||
		strings.Contains(s, "username and password not accepted") ||
		strings.Contains(s, "authentication failed") ||
		strings.Contains(s, "auth") && strings.Contains(s, "failed") {
		return SMTPDiag{Code: "auth", Temporary: false}
	}

	// rate limit / throttling temporal (4.x.x)
	if strings.Contains(s, "4.7.0") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "try again later") ||
		strings.Contains(s, "temporarily unavailable") ||
		strings.Contains(s, "451") || strings.Contains(s, "421") {
		return SMTPDiag{Code: "rate_limited", Temporary: true}
	}

	// destinatario inválido
	if strings.Contains(s, "5.1.1") || strings.Contains(s, "user unknown") ||
		strings.Contains(s, "mailbox not found") {
		return SMTPDiag{Code: "invalid_recipient", Temporary: false}
	}

	// políticas/DMARC/SPF/rechazos 5.7.1
	if strings.Contains(s, "5.7.1") ||
		strings.Contains(s, "message rejected") ||
		strings.Contains(s, "policy") ||
		strings.Contains(s, "dmarc") || strings.Contains(s, "spf") {
		return SMTPDiag{Code: "rejected", Temporary: false}
	}

	// resto de errores de red
	if errors.As(err, &ne) {
		return SMTPDiag{Code: "network", Temporary: true}
	}
	return SMTPDiag{Code: "unknown", Temporary: false}
}

// diagFromCode usa el código de respuesta y el enhanced code cuando el
// server los devolvió.
func diagFromCode(se *smtp.SMTPError) (SMTPDiag, bool) {
	switch ec := se.EnhancedCode; {
	case ec == smtp.EnhancedCode{5, 7, 8} || se.Code == 535:
		return SMTPDiag{Code: "auth"}, true
	case ec == smtp.EnhancedCode{5, 1, 1} || se.Code == 550 && ec[1] == 1:
		return SMTPDiag{Code: "invalid_recipient"}, true
	case se.Code == 421 || se.Code == 450 || se.Code == 451 || se.Code == 452:
		return SMTPDiag{Code: "rate_limited", Temporary: true}, true
	case se.Code >= 500:
		return SMTPDiag{Code: "rejected"}, true
	}
	return SMTPDiag{}, false
}
