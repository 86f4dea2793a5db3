package admin

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailrelay/internal/email"
	jwtx "github.com/dropDatabas3/mailrelay/internal/jwt"
	"github.com/dropDatabas3/mailrelay/internal/settings"
)

type csrfStub struct {
	calls int
	err   error
}

func (c *csrfStub) Verify(context.Context, string, string) error {
	c.calls++
	return c.err
}

type senderStub struct {
	calls int
	msgs  []email.Message
	err   error
	panic bool
}

func (s *senderStub) SendMessage(_ context.Context, msg email.Message) error {
	s.calls++
	if s.panic {
		panic("smtp exploded")
	}
	s.msgs = append(s.msgs, msg)
	return s.err
}

type settingsStub struct{ rec settings.Record }

func (s settingsStub) Load(context.Context) (settings.Record, error) { return s.rec, nil }

func admin() *jwtx.AdminAccessClaims {
	return &jwtx.AdminAccessClaims{AdminID: "u1", Roles: []string{"admin"}, SessionID: "s1"}
}

func newMailing(c *csrfStub, s *senderStub) MailingService {
	return NewMailingService(MailingDeps{CSRF: c, Mailer: s, Settings: settingsStub{}, SiteName: "Site <b>"})
}

func TestHandleTestRequest_CSRFCheckedFirst(t *testing.T) {
	c := &csrfStub{err: errors.New("bad token")}
	s := &senderStub{}
	res := newMailing(c, s).HandleTestRequest(context.Background(), TestRequest{Address: "not-an-email"})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, msgUnauthorized, res.Data)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 0, s.calls)
}

func TestHandleTestRequest_NonAdmin(t *testing.T) {
	s := &senderStub{}
	caller := &jwtx.AdminAccessClaims{AdminID: "u2", Roles: []string{"editor"}, SessionID: "s2"}
	res := newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Caller: caller, Address: "a@example.com"})

	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, msgUnauthorized, res.Data)
	assert.Equal(t, 0, s.calls)
}

func TestHandleTestRequest_InvalidAddress(t *testing.T) {
	s := &senderStub{}
	for _, addr := range []string{"", "   ", "nope", "a@", "<script>@x"} {
		res := newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Caller: admin(), Address: addr})
		assert.Equal(t, http.StatusBadRequest, res.Status, addr)
		assert.False(t, res.Success)
	}
	assert.Equal(t, 0, s.calls)
}

func TestHandleTestRequest_Sent(t *testing.T) {
	s := &senderStub{}
	res := newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Caller: admin(), Address: "  dest@example.com "})

	require.True(t, res.Success)
	assert.Equal(t, "Test email sent to dest@example.com.", res.Data)
	require.Len(t, s.msgs, 1)
	assert.Equal(t, []string{"dest@example.com"}, s.msgs[0].To)
	assert.Equal(t, email.TestEmailSubject, s.msgs[0].Subject)
	assert.NotContains(t, s.msgs[0].HTML, "<b>")
}

func TestHandleTestRequest_SendFailure(t *testing.T) {
	s := &senderStub{err: email.ErrMissingHost}
	res := newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Caller: admin(), Address: "dest@example.com"})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, email.DiagnoseSMTP(email.ErrMissingHost).Message(), res.Data)
	assert.NotEmpty(t, res.Data)
}

func TestHandleTestRequest_PanicBecomesFailure(t *testing.T) {
	s := &senderStub{panic: true}
	res := newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Caller: admin(), Address: "dest@example.com"})

	assert.False(t, res.Success)
	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.NotEmpty(t, res.Data)
}

func TestHandleTestRequest_MalformedBodyAfterAuthChecks(t *testing.T) {
	s := &senderStub{}

	res := newMailing(&csrfStub{err: errors.New("bad token")}, s).HandleTestRequest(context.Background(), TestRequest{Malformed: true})
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Malformed: true})
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = newMailing(&csrfStub{}, s).HandleTestRequest(context.Background(), TestRequest{Caller: admin(), Malformed: true})
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid request body.", res.Data)
	assert.Equal(t, 0, s.calls)
}
