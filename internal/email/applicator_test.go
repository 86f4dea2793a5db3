package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailrelay/internal/settings"
)

type staticSettings struct {
	rec settings.Record
	err error
	n   int
}

func (s *staticSettings) Load(context.Context) (settings.Record, error) {
	s.n++
	return s.rec, s.err
}

func sampleRecord() settings.Record {
	return settings.Record{
		Host:       "smtp.example.org",
		Port:       587,
		Encryption: settings.EncryptionTLS,
		Auth:       true,
		Username:   "user",
		Password:   " secret ",
		FromEmail:  "noreply@example.org",
		FromName:   "Example",
	}
}

func TestApply_STARTTLS(t *testing.T) {
	rec := sampleRecord()
	tr := defaultTransport()
	Apply(rec, &tr)

	assert.True(t, tr.SMTP)
	assert.True(t, tr.SMTPAuth)
	assert.Equal(t, SecureTLS, tr.Secure)
	assert.Equal(t, rec.Host, tr.Host)
	assert.Equal(t, rec.Port, tr.Port)
	assert.Equal(t, rec.Username, tr.Username)
	assert.Equal(t, rec.Password, tr.Password)
	assert.Equal(t, rec.FromEmail, tr.From)
	assert.Equal(t, rec.FromName, tr.FromName)
	assert.Equal(t, DebugOff, tr.DebugLevel)
}

func TestApply_EncryptionMapping(t *testing.T) {
	for enc, want := range map[settings.Encryption]string{
		settings.EncryptionNone: SecureNone,
		settings.EncryptionSSL:  SecureSSL,
		settings.EncryptionTLS:  SecureTLS,
	} {
		rec := sampleRecord()
		rec.Encryption = enc
		var tr Transport
		Apply(rec, &tr)
		assert.Equal(t, want, tr.Secure, "encryption %s", enc)
	}
}

func TestApply_DebugRaisesLevel(t *testing.T) {
	rec := sampleRecord()
	rec.Debug = true
	var tr Transport
	Apply(rec, &tr)
	assert.Equal(t, DebugConversation, tr.DebugLevel)
}

func TestApply_AuthAlwaysOn(t *testing.T) {
	rec := sampleRecord()
	rec.Auth = false
	var tr Transport
	Apply(rec, &tr)
	assert.True(t, tr.SMTPAuth)
}

func TestApplicator_OnBeforeSend(t *testing.T) {
	src := &staticSettings{rec: sampleRecord()}
	a := NewApplicator(src)

	var tr Transport
	require.NoError(t, a.OnBeforeSend(context.Background(), &tr))
	assert.Equal(t, "smtp.example.org", tr.Host)
	assert.Equal(t, 1, src.n)

	src.err = errors.New("boom")
	assert.Error(t, a.OnBeforeSend(context.Background(), &tr))
}
