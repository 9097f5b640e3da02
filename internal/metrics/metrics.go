package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/orgpay/payroll/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_http_requests_total",
		Help: "Total HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payroll_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	ledgerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_ledger_events_total",
		Help: "Ledger events by type.",
	}, []string{"type"})

	disbursedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_disbursed_amount_total",
		Help: "Net amount disbursed, by token address.",
	}, []string{"token"})
)

// Sink counts ledger events as they are emitted.
type Sink struct{}

func NewSink() *Sink { return &Sink{} }

func (s *Sink) Emit(_ context.Context, e models.Event) {
	ledgerEventsTotal.WithLabelValues(e.Type).Inc()
	if e.Type == models.EventTokenDisbursed {
		disbursedAmount.WithLabelValues(e.TokenAddress).Add(float64(e.Amount))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments every request with a counter and latency histogram.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, r.URL.Path))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		timer.ObserveDuration()
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}
