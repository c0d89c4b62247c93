package metrics

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "moneta"

// Metrics holds the gateway adapter's Prometheus collectors.
type Metrics struct {
	requestsTotal         *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec
	redirectsTotal        *prometheus.CounterVec
	callbacksTotal        *prometheus.CounterVec
	callbackDuplicates    prometheus.Counter
	callbackConflicts     prometheus.Counter
	signatureFailures     prometheus.Counter
	rateLimitExceeded     *prometheus.CounterVec
	callbackHandleLatency prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in
// tests so repeated construction does not collide.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		redirectsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "redirects_total",
				Help:      "Checkout redirects by result.",
			},
			[]string{"result"},
		),
		callbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "callbacks_total",
				Help:      "Gateway callbacks by final state.",
			},
			[]string{"state"},
		),
		callbackDuplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_duplicates_total",
			Help:      "Replayed callbacks whose outcome was already applied.",
		}),
		callbackConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_conflicts_total",
			Help:      "Replayed callbacks asserting a different outcome than the recorded one.",
		}),
		signatureFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_failures_total",
			Help:      "Callbacks rejected for a signature mismatch.",
		}),
		rateLimitExceeded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_exceeded_total",
				Help:      "Requests refused by the rate limiter.",
			},
			[]string{"tier"},
		),
		callbackHandleLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "callback_handle_duration_seconds",
			Help:      "Time spent validating and applying one callback.",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: reg,
	}
}

func (m *Metrics) RecordRedirect(result string) {
	m.redirectsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCallback(state string, t *Timer) {
	m.callbacksTotal.WithLabelValues(state).Inc()
	if t != nil {
		m.callbackHandleLatency.Observe(t.Seconds())
	}
}

func (m *Metrics) RecordDuplicate() {
	m.callbackDuplicates.Inc()
}

func (m *Metrics) RecordConflict() {
	m.callbackConflicts.Inc()
}

func (m *Metrics) RecordSignatureFailure() {
	m.signatureFailures.Inc()
}

func (m *Metrics) RecordRateLimited(tier string) {
	m.rateLimitExceeded.WithLabelValues(tier).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() httprouter.Handle {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Instrument wraps one route. The route label is the registered pattern, not
// the request path, so order ids never become label values.
func (m *Metrics) Instrument(route string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		t := StartTimer()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r, ps)
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(t.Seconds())
	}
}
