package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics provides observability for gateway operations.
// Tracks call counts per operation, latency, and session token refreshes.
type Metrics struct {
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	TokenRefreshes  *prometheus.CounterVec
	ToolCalls       *prometheus.CounterVec
}

// New creates a Metrics instance registered against reg.
// A nil reg registers against the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		GatewayCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "efatura_gateway_calls_total",
			Help: "Total number of gateway operations by outcome",
		}, []string{"operation", "mode", "outcome"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "efatura_gateway_call_duration_seconds",
			Help:    "Duration of gateway operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "mode"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "efatura_session_refreshes_total",
			Help: "Total number of GİB session logins by result",
		}, []string{"result"}),
		ToolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "efatura_tool_calls_total",
			Help: "Total number of tool invocations by error kind",
		}, []string{"tool", "kind"}),
	}
}

// ObserveCall records the outcome and duration of a gateway operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCall(operation, mode string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.GatewayCalls.WithLabelValues(operation, mode, outcome).Inc()
	m.GatewayDuration.WithLabelValues(operation, mode).Observe(time.Since(start).Seconds())
}

// IncrementTokenRefresh records a session login attempt
func (m *Metrics) IncrementTokenRefresh(ok bool) {
	if m == nil {
		return
	}
	result := OutcomeOK
	if !ok {
		result = OutcomeError
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// IncrementToolCall records a tool invocation. kind is empty on success.
func (m *Metrics) IncrementToolCall(tool, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "none"
	}
	m.ToolCalls.WithLabelValues(tool, kind).Inc()
}
