package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordCallback("ACCEPTED", StartTimer())
	m.RecordCallback("ACCEPTED", nil)
	m.RecordCallback("REJECTED", nil)
	m.RecordDuplicate()
	m.RecordConflict()
	m.RecordSignatureFailure()
	m.RecordRedirect("ok")
	m.RecordRateLimited("strict")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.callbacksTotal.WithLabelValues("ACCEPTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbacksTotal.WithLabelValues("REJECTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbackDuplicates))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callbackConflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signatureFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.redirectsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitExceeded.WithLabelValues("strict")))
}

func TestMetrics_InstrumentAndServe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	router := httprouter.New()
	router.GET("/checkout/:order_guid", m.Instrument("/checkout/:order_guid",
		func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.WriteHeader(http.StatusNotFound)
		}))
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout/abc", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.requestsTotal.WithLabelValues("/checkout/:order_guid", http.MethodGet, "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "moneta_http_requests_total")
	assert.NotContains(t, w.Body.String(), "/checkout/abc")
}
