package email

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
	"github.com/dropDatabas3/mailrelay/internal/util"
)

var (
	ErrNoRecipients           = errors.New("email: no recipients")
	ErrTransportNotConfigured = errors.New("email: smtp transport not configured")
)

// BeforeSendHook muta el Transport antes del envío. Un error aborta el envío.
type BeforeSendHook interface {
	OnBeforeSend(ctx context.Context, t *Transport) error
}

// Observer recibe un MailEvent por cada envío, exitoso o no.
// No puede cambiar el resultado.
type Observer interface {
	OnMailEvent(ctx context.Context, ev MailEvent)
}

// Deliverer ejecuta la conversación con el relay.
type Deliverer interface {
	Deliver(ctx context.Context, t Transport, env Envelope) error
}

// Envelope es lo que el Deliverer transmite.
type Envelope struct {
	From string
	To   []string
	Msg  io.WriterTo
}

// MailEvent describe un envío terminado.
type MailEvent struct {
	To       []string
	Subject  string
	Err      error
	Duration time.Duration
}

// Message es un correo a enviar. Si HTML y Text vienen ambos se arma
// multipart/alternative.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Mailer es la primitiva de envío del host.
type Mailer struct {
	deliverer Deliverer
	hooks     []BeforeSendHook
	observers []Observer
}

func NewMailer(d Deliverer) *Mailer {
	return &Mailer{deliverer: d}
}

// AddHook registra un hook before-send. No es seguro llamarlo con envíos en curso.
func (m *Mailer) AddHook(h BeforeSendHook) { m.hooks = append(m.hooks, h) }

// AddObserver registra un observer. No es seguro llamarlo con envíos en curso.
func (m *Mailer) AddObserver(o Observer) { m.observers = append(m.observers, o) }

// Send envía body como text/plain. nil equivale a "enviado".
func (m *Mailer) Send(ctx context.Context, to []string, subject, body string) error {
	return m.SendMessage(ctx, Message{To: to, Subject: subject, Text: body})
}

// SendMessage corre hooks, compone, entrega y notifica a los observers.
func (m *Mailer) SendMessage(ctx context.Context, msg Message) error {
	start := time.Now()
	err := m.send(ctx, msg)
	m.notify(ctx, MailEvent{
		To:       append([]string(nil), msg.To...),
		Subject:  msg.Subject,
		Err:      err,
		Duration: time.Since(start),
	})
	return err
}

func (m *Mailer) send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	t := defaultTransport()
	for _, h := range m.hooks {
		if err := h.OnBeforeSend(ctx, &t); err != nil {
			return err
		}
	}

	mm := compose(t, msg)
	return m.deliverer.Deliver(ctx, t, Envelope{From: t.From, To: msg.To, Msg: mm})
}

func compose(t Transport, msg Message) *mail.Message {
	mm := mail.NewMessage()
	if t.FromName != "" {
		mm.SetAddressHeader("From", t.From, t.FromName)
	} else {
		mm.SetHeader("From", t.From)
	}
	mm.SetHeader("To", msg.To...)
	mm.SetHeader("Subject", msg.Subject)
	mm.SetDateHeader("Date", time.Now())

	// Preferimos multipart/alternative (txt + html)
	switch {
	case msg.Text != "" && msg.HTML != "":
		mm.SetBody("text/plain", msg.Text)
		mm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		mm.SetBody("text/html", msg.HTML)
	default:
		mm.SetBody("text/plain", msg.Text)
	}
	return mm
}

func (m *Mailer) notify(ctx context.Context, ev MailEvent) {
	for _, o := range m.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.From(ctx).Error("mail observer panic",
						logger.Component("email.mailer"),
						logger.Any("to", util.MaskEmails(ev.To)),
						logger.String("panic", fmt.Sprint(r)))
				}
			}()
			o.OnMailEvent(ctx, ev)
		}()
	}
}
