// Package metrics expone métricas Prometheus del servicio: HTTP, envíos de
// mail, envíos de prueba y guardados de configuración.
package metrics

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/mailrelay/internal/email"
)

var (
	collectorsOnce sync.Once

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// Dominio
	mailSentTotal      *prometheus.CounterVec
	mailSendDuration   prometheus.Histogram
	testSendsTotal     *prometheus.CounterVec
	settingsSavesTotal *prometheus.CounterVec
)

// Register registra las métricas en reg (default: registerer global) y
// devuelve el handler para /metrics. Los collectors son únicos por proceso;
// cada llamada los registra en el reg recibido.
func Register(reg prometheus.Registerer) (http.Handler, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	collectorsOnce.Do(initCollectors)
	for _, c := range collectors() {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{}), nil
	}
	return promhttp.Handler(), nil
}

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDuration, httpInflight,
		mailSentTotal, mailSendDuration, testSendsTotal, settingsSavesTotal,
	}
}

func initCollectors() {
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método y ruta",
	}, []string{"method", "path"})

	mailSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailrelay_mail_sent_total",
		Help: "Envíos de mail por resultado",
	}, []string{"result"}) // result: ok|error

	mailSendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "mailrelay_mail_send_duration_seconds",
		Help:    "Duración de un envío (hooks + conversación SMTP)",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	testSendsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailrelay_test_sends_total",
		Help: "Requests al endpoint de envío de prueba por resultado",
	}, []string{"result"}) // result: sent|failed|forbidden|invalid

	settingsSavesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mailrelay_settings_saves_total",
		Help: "Guardados de configuración SMTP por resultado",
	}, []string{"result"}) // result: ok|invalid|error
}

// registerCollector registra el collector en el registry indicado, ignorando duplicados.
func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

// RecordTestSend registra el resultado de un envío de prueba.
func RecordTestSend(result string) {
	if testSendsTotal != nil {
		testSendsTotal.WithLabelValues(result).Inc()
	}
}

// RecordSettingsSave registra el resultado de un guardado de configuración.
func RecordSettingsSave(result string) {
	if settingsSavesTotal != nil {
		settingsSavesTotal.WithLabelValues(result).Inc()
	}
}

// MailObserver cuenta cada envío del Mailer.
type MailObserver struct{}

func (MailObserver) OnMailEvent(_ context.Context, ev email.MailEvent) {
	if mailSentTotal == nil {
		return
	}
	result := "ok"
	if ev.Err != nil {
		result = "error"
	}
	mailSentTotal.WithLabelValues(result).Inc()
	mailSendDuration.Observe(ev.Duration.Seconds())
}

// statusRecorder captura el status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

// WithMetrics instrumenta requests HTTP con métricas Prometheus (contadores, latencia, inflight).
func WithMetrics(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

var (
	hexSegmentRE   = regexp.MustCompile(`^[0-9a-fA-F]{16,}$`)
	tokenSegmentRE = regexp.MustCompile(`^[A-Za-z0-9_-]{24,}$`)
)

// normalizePath colapsa segmentos dinámicos para acotar la cardinalidad.
func normalizePath(p string) string {
	clean := strings.SplitN(p, "?", 2)[0]
	var out []string
	for _, seg := range strings.Split(clean, "/") {
		if seg == "" {
			continue
		}
		if isDynamicSegment(seg) {
			out = append(out, ":param")
		} else {
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}

func isDynamicSegment(seg string) bool {
	if len(seg) > 48 || hexSegmentRE.MatchString(seg) || tokenSegmentRE.MatchString(seg) {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
