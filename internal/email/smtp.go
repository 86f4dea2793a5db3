package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
)

var (
	ErrMissingHost         = errors.New("email: smtp host is empty")
	ErrMissingFrom         = errors.New("email: sender address is empty")
	ErrStartTLSUnsupported = errors.New("email: server does not support STARTTLS")
	ErrAuthFailed          = errors.New("email: smtp authentication failed")
)

// SMTPDeliverer entrega por SMTP usando emersion/go-smtp.
type SMTPDeliverer struct {
	// Timeout aplica al dial y a cada comando. Default 10s.
	Timeout            time.Duration
	// LocalName para EHLO; vacío = "localhost". Con STARTTLS el EHLO previo
	// al TLS siempre usa "localhost".
	LocalName          string
	InsecureSkipVerify bool   // solo dev
}

func (d *SMTPDeliverer) timeout() time.Duration {
	if d.Timeout <= 0 {
		return 10 * time.Second
	}
	return d.Timeout
}

// open arma el cliente según secure. Con STARTTLS el saludo previo al TLS
// corre dentro de NewClientStartTLS: se acota con un timer y, si hay debug,
// se loguea vía teeConn hasta que arranca el TLS.
func (d *SMTPDeliverer) open(conn net.Conn, secure string, tlsCfg *tls.Config, cl *conversationLog) (*smtp.Client, error) {
	switch secure {
	case SecureSSL:
		tc := tls.Client(conn, tlsCfg)
		hctx, cancel := context.WithTimeout(context.Background(), d.timeout())
		defer cancel()
		if err := tc.HandshakeContext(hctx); err != nil {
			return nil, fmt.Errorf("smtp tls handshake: %w", err)
		}
		return smtp.NewClient(tc), nil

	case SecureTLS:
		timer := time.AfterFunc(d.timeout(), func() { _ = conn.Close() })
		defer timer.Stop()

		var raw net.Conn = conn
		var tee *teeConn
		if cl != nil {
			tee = &teeConn{Conn: conn, w: cl}
			tee.on.Store(true)
			raw = tee
		}
		c, err := smtp.NewClientStartTLS(raw, tlsCfg)
		if tee != nil {
			tee.on.Store(false)
		}
		if err != nil {
			if strings.Contains(err.Error(), "support STARTTLS") {
				return nil, ErrStartTLSUnsupported
			}
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
		return c, nil

	default:
		return smtp.NewClient(conn), nil
	}
}

// teeConn copia el tráfico en claro al log de conversación mientras on.
type teeConn struct {
	net.Conn
	w  io.Writer
	on atomic.Bool
}

func (c *teeConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 && c.on.Load() {
		_, _ = c.w.Write(b[:n])
	}
	return n, err
}

func (c *teeConn) Write(b []byte) (int, error) {
	if c.on.Load() {
		_, _ = c.w.Write(b)
	}
	return c.Conn.Write(b)
}

// Deliver abre la conexión según t.Secure, autentica si hay usuario y
// transmite el mensaje.
func (d *SMTPDeliverer) Deliver(ctx context.Context, t Transport, env Envelope) error {
	if !t.SMTP {
		return ErrTransportNotConfigured
	}
	if t.Host == "" {
		return ErrMissingHost
	}
	if env.From == "" {
		return ErrMissingFrom
	}
	if len(env.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}

	log := logger.From(ctx).With(
		logger.Component("email.smtp"),
		logger.String("host", t.Host),
		logger.Int("port", t.Port),
		logger.String("secure", t.Secure),
	)

	tlsCfg := &tls.Config{
		ServerName:         t.Host,
		InsecureSkipVerify: d.InsecureSkipVerify, // solo dev
	}

	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
	dctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	conn, err := (&net.Dialer{}).DialContext(dctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// La cancelación del ctx corta la conversación en curso.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	var cl *conversationLog
	if t.DebugLevel >= DebugConversation {
		cl = newConversationLog(log)
		defer cl.Flush()
	}

	c, err := d.open(conn, t.Secure, tlsCfg, cl)
	if err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return fmt.Errorf("smtp connect: %w", ctx.Err())
		}
		return err
	}
	defer c.Close()
	c.CommandTimeout = d.timeout()
	c.SubmissionTimeout = d.timeout()
	if cl != nil {
		c.DebugWriter = cl
	}

	if d.LocalName != "" {
		if err := c.Hello(d.LocalName); err != nil {
			return fmt.Errorf("smtp hello: %w", err)
		}
	}

	// Igual que go-mail: si el server no anuncia AUTH no se autentica.
	if t.SMTPAuth && t.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(sasl.NewPlainClient("", t.Username, t.Password)); err != nil {
				return fmt.Errorf("%w: %w", ErrAuthFailed, err)
			}
		} else {
			log.Debug("server does not advertise AUTH, sending unauthenticated")
		}
	}

	if err := c.Mail(env.From, nil); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range env.To {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("smtp rcpt to: %w", err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := env.Msg.WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}

	if err := c.Quit(); err != nil {
		// El mensaje ya fue aceptado.
		log.Debug("smtp quit failed", logger.Err(err))
	}
	log.Info("email sent successfully", logger.Recipients(env.To))
	return nil
}
