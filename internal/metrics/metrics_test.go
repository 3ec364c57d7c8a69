package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.Checkout("created")
	m.Checkout("created")
	m.Checkout("provider_unavailable")
	m.Webhook("payment_intent.succeeded", "applied")
	m.Webhook("payment_intent.succeeded", "duplicate")
	m.Media("upload", nil)
	m.Media("delete", errors.New("boom"))
	m.ObserveHTTP(http.MethodGet, "/addresses", http.StatusOK, 12*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkouts.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkouts.WithLabelValues("provider_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhooks.WithLabelValues("payment_intent.succeeded", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("delete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/addresses", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Checkout("created")
		m.Webhook("x", "y")
		m.Media("upload", nil)
		m.ObserveHTTP("GET", "/", 200, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Checkout("created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `aroma_shop_checkouts_total{outcome="created"} 1`)
}
