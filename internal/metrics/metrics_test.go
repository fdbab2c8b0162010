package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/reyhansunduk/efatura-mcp-server/internal/metrics"
)

func TestObserveCall(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveCall("list", "demo", time.Now(), nil)
	m.ObserveCall("list", "demo", time.Now(), nil)
	m.ObserveCall("cancel", "demo", time.Now(), errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("list", "demo", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("cancel", "demo", metrics.OutcomeError)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("cancel", "demo", metrics.OutcomeOK)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.GatewayDuration))
}

func TestIncrementTokenRefresh(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.IncrementTokenRefresh(true)
	m.IncrementTokenRefresh(false)
	m.IncrementTokenRefresh(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TokenRefreshes.WithLabelValues(metrics.OutcomeError)))
}

func TestIncrementToolCall(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.IncrementToolCall("validate_tax_number", "")
	m.IncrementToolCall("cancel_invoice", "state")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("validate_tax_number", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("cancel_invoice", "state")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveCall("list", "demo", time.Now(), nil)
		m.IncrementTokenRefresh(true)
		m.IncrementToolCall("x", "")
	})
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New(prometheus.NewRegistry())
		metrics.New(prometheus.NewRegistry())
	})
}
