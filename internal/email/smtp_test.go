package email

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dropDatabas3/mailrelay/internal/observability/logger"
)

// ─── In-process SMTP server ───

type received struct {
	from string
	to   []string
	data string
	user string
}

type testBackend struct {
	mu       sync.Mutex
	msgs     []received
	username string
	password string
}

func (b *testBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &testSession{b: b}, nil
}

func (b *testBackend) messages() []received {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]received(nil), b.msgs...)
}

type testSession struct {
	b   *testBackend
	cur received
}

func (s *testSession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (s *testSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != s.b.username || password != s.b.password {
			return &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "bad credentials"}
		}
		s.cur.user = username
		return nil
	}), nil
}

func (s *testSession) Mail(from string, _ *smtp.MailOptions) error {
	s.cur.from = from
	return nil
}

func (s *testSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.cur.to = append(s.cur.to, to)
	return nil
}

func (s *testSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.cur.data = string(b)
	s.b.mu.Lock()
	s.b.msgs = append(s.b.msgs, s.cur)
	s.b.mu.Unlock()
	return nil
}

func (s *testSession) Reset()        { s.cur = received{user: s.cur.user} }
func (s *testSession) Logout() error { return nil }

func startServer(t *testing.T, be *testBackend) (host string, port int) {
	t.Helper()
	return startServerTLS(t, be, nil, false)
}

// startServerTLS anuncia STARTTLS si cfg != nil; con implicit el listener ya es TLS.
func startServerTLS(t *testing.T, be *testBackend, cfg *tls.Config, implicit bool) (host string, port int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	if implicit {
		l = tls.NewListener(l, cfg)
	}

	srv := smtp.NewServer(be)
	if !implicit {
		srv.TLSConfig = cfg
	}
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	h, p, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(p)
	require.NoError(t, err)
	return h, port
}

// selfSignedTLS genera un certificado efímero para 127.0.0.1.
func selfSignedTLS(t *testing.T) *tls.Config {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "mailrelay test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return &tls.Config{Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}}}
}

func plainTransport(host string, port int) Transport {
	return Transport{
		SMTP:     true,
		Host:     host,
		Port:     port,
		SMTPAuth: true,
		Secure:   SecureNone,
		Username: "relay",
		Password: "s3cr3t",
		From:     "noreply@example.org",
		FromName: "Example",
	}
}

func TestSMTPDeliverer_DeliversWithAuth(t *testing.T) {
	be := &testBackend{username: "relay", password: "s3cr3t"}
	host, port := startServer(t, be)

	m := NewMailer(&SMTPDeliverer{Timeout: 5 * time.Second})
	m.AddHook(hookFunc(func(_ context.Context, tr *Transport) error {
		*tr = plainTransport(host, port)
		return nil
	}))

	err := m.Send(context.Background(), []string{"a@example.org", "b@example.org"}, "Hello", "plain body")
	require.NoError(t, err)

	msgs := be.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "noreply@example.org", msgs[0].from)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, msgs[0].to)
	assert.Equal(t, "relay", msgs[0].user)
	assert.Contains(t, msgs[0].data, "Subject: Hello")
	assert.Contains(t, msgs[0].data, "plain body")
}

func TestSMTPDeliverer_BadCredentials(t *testing.T) {
	be := &testBackend{username: "relay", password: "s3cr3t"}
	host, port := startServer(t, be)

	tr := plainTransport(host, port)
	tr.Password = "wrong"
	d := &SMTPDeliverer{Timeout: 5 * time.Second}
	err := d.Deliver(context.Background(), tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("x")})
	require.Error(t, err)
	assert.Equal(t, "auth", DiagnoseSMTP(err).Code)
	assert.Empty(t, be.messages())
}

func TestSMTPDeliverer_StartTLSUnsupported(t *testing.T) {
	be := &testBackend{username: "relay", password: "s3cr3t"}
	host, port := startServer(t, be)

	tr := plainTransport(host, port)
	tr.Secure = SecureTLS
	d := &SMTPDeliverer{Timeout: 5 * time.Second}
	err := d.Deliver(context.Background(), tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("x")})
	assert.ErrorIs(t, err, ErrStartTLSUnsupported)
}

func TestSMTPDeliverer_SecureModes(t *testing.T) {
	tests := []struct {
		name     string
		secure   string
		implicit bool
	}{
		{"starttls", SecureTLS, false},
		{"implicit tls", SecureSSL, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			be := &testBackend{username: "relay", password: "s3cr3t"}
			host, port := startServerTLS(t, be, selfSignedTLS(t), tt.implicit)

			tr := plainTransport(host, port)
			tr.Secure = tt.secure
			d := &SMTPDeliverer{Timeout: 5 * time.Second, LocalName: "relay.example.org", InsecureSkipVerify: true}
			err := d.Deliver(context.Background(), tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("Subject: x\r\n\r\nbody\r\n")})
			require.NoError(t, err)

			msgs := be.messages()
			require.Len(t, msgs, 1)
			assert.Equal(t, "relay", msgs[0].user)
			assert.Equal(t, []string{"a@example.org"}, msgs[0].to)
		})
	}
}

func TestSMTPDeliverer_StartTLSConversationLogged(t *testing.T) {
	be := &testBackend{username: "relay", password: "s3cr3t"}
	host, port := startServerTLS(t, be, selfSignedTLS(t), false)

	log, logs := newObserved()
	ctx := logger.ToContext(context.Background(), log)

	tr := plainTransport(host, port)
	tr.Secure = SecureTLS
	tr.DebugLevel = DebugConversation
	d := &SMTPDeliverer{Timeout: 5 * time.Second, InsecureSkipVerify: true}
	require.NoError(t, d.Deliver(ctx, tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("Subject: x\r\n\r\nbody\r\n")}))

	var lines []string
	sawMail := false
	for _, e := range logs.FilterField(zap.String("component", "email.smtp.conversation")).All() {
		line := e.ContextMap()["line"].(string)
		assert.NotContains(t, line, "s3cr3t")
		if strings.HasPrefix(line, "MAIL FROM:<noreply@example.org>") {
			sawMail = true
		}
		lines = append(lines, line)
	}
	// antes del TLS
	assert.Contains(t, lines, "STARTTLS")
	// después del TLS
	assert.True(t, sawMail, "lines: %v", lines)
	assert.Contains(t, lines, "AUTH PLAIN "+redacted)
}

func TestSMTPDeliverer_NotConfigured(t *testing.T) {
	d := &SMTPDeliverer{}
	err := d.Deliver(context.Background(), defaultTransport(), Envelope{From: "a@b.c", To: []string{"x@y.z"}})
	assert.ErrorIs(t, err, ErrTransportNotConfigured)
	assert.Equal(t, "config", DiagnoseSMTP(err).Code)
}

func TestSMTPDeliverer_DialFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	require.NoError(t, l.Close())

	tr := plainTransport("127.0.0.1", addr.Port)
	d := &SMTPDeliverer{Timeout: time.Second}
	err = d.Deliver(context.Background(), tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("x")})
	require.Error(t, err)
	assert.Equal(t, "dial", DiagnoseSMTP(err).Code)
}

func TestSMTPDeliverer_ConversationLogRedactsAuth(t *testing.T) {
	be := &testBackend{username: "relay", password: "s3cr3t"}
	host, port := startServer(t, be)

	log, logs := newObserved()
	ctx := logger.ToContext(context.Background(), log)

	tr := plainTransport(host, port)
	tr.DebugLevel = DebugConversation
	d := &SMTPDeliverer{Timeout: 5 * time.Second}
	require.NoError(t, d.Deliver(ctx, tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("Subject: x\r\n\r\nbody\r\n")}))

	conv := logs.FilterField(zap.String("component", "email.smtp.conversation")).All()
	require.NotEmpty(t, conv)
	sawAuth := false
	for _, e := range conv {
		line := e.ContextMap()["line"].(string)
		assert.NotContains(t, line, "s3cr3t")
		// base64("\x00relay\x00s3cr3t")
		assert.NotContains(t, line, "AHJlbGF5AHMzY3IzdA==")
		if line == "AUTH PLAIN "+redacted {
			sawAuth = true
		}
	}
	assert.True(t, sawAuth)
}

func TestSMTPDeliverer_ContextCanceled(t *testing.T) {
	be := &testBackend{}
	host, port := startServer(t, be)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := plainTransport(host, port)
	d := &SMTPDeliverer{Timeout: time.Second}
	err := d.Deliver(ctx, tr, Envelope{From: tr.From, To: []string{"a@example.org"}, Msg: bytes.NewBufferString("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

type hookFunc func(ctx context.Context, t *Transport) error

func (f hookFunc) OnBeforeSend(ctx context.Context, t *Transport) error { return f(ctx, t) }
