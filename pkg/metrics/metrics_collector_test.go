package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsCollector(reg)

	m.RecordPaymentTransition("PENDING", "PAID", "webhook")
	m.RecordPaymentTransition("PENDING", "PAID", "webhook")
	m.RecordWebhook("pagarme", "duplicate")
	m.RecordHTTPRequest("POST", "/payment/checkout", 502, 20*time.Millisecond)
	m.RecordGatewayCall("create_order", time.Second, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentTransitions.WithLabelValues("PENDING", "PAID", "webhook")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.webhookEvents.WithLabelValues("pagarme", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/payment/checkout", "5xx")))
}

func TestGetStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", getStatusCategory(201))
	assert.Equal(t, "4xx", getStatusCategory(404))
	assert.Equal(t, "5xx", getStatusCategory(500))
	assert.Equal(t, "unknown", getStatusCategory(0))
}
