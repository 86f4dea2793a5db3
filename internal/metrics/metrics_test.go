package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/mailrelay/internal/email"
)

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/", normalizePath(""))
	assert.Equal(t, "/v2/admin/smtp/test", normalizePath("/v2/admin/smtp/test?x=1"))
	assert.Equal(t, "/items/:param", normalizePath("/items/123"))
	assert.Equal(t, "/t/:param", normalizePath("/t/0123456789abcdef0123"))
}

func TestRegister_AndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := Register(reg)
	require.NoError(t, err)

	before := testutil.ToFloat64(mailSentTotal.WithLabelValues("error"))
	MailObserver{}.OnMailEvent(context.Background(), email.MailEvent{Err: errors.New("x")})
	assert.Equal(t, before+1, testutil.ToFloat64(mailSentTotal.WithLabelValues("error")))

	RecordTestSend("sent")
	RecordSettingsSave("ok")

	srv := WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.GreaterOrEqual(t, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/x", "418")), 1.0)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "mailrelay_test_sends_total")
}

func TestRegister_EveryRegistryExposesMetrics(t *testing.T) {
	first, second := prometheus.NewRegistry(), prometheus.NewRegistry()
	_, err := Register(first)
	require.NoError(t, err)
	h2, err := Register(second)
	require.NoError(t, err)

	// otra vez sobre el mismo registry: los duplicados se ignoran
	_, err = Register(first)
	require.NoError(t, err)

	RecordSettingsSave("ok")
	for _, reg := range []*prometheus.Registry{first, second} {
		n, err := testutil.GatherAndCount(reg, "mailrelay_settings_saves_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	rr := httptest.NewRecorder()
	h2.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rr.Body.String(), "mailrelay_settings_saves_total")
}
