package metrics

import "github.com/prometheus/client_golang/prometheus"

var breakerStates = []string{"closed", "half-open", "open"}

// BreakerMetrics exports circuit breaker state per outbound operation.
type BreakerMetrics struct {
	service     string
	state       *prometheus.GaugeVec
	transitions *prometheus.CounterVec
}

func NewBreakerMetrics(service string, registerer prometheus.Registerer) *BreakerMetrics {
	state := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "state",
			Help:      "Circuit breaker state per operation; the active state is 1.",
		},
		[]string{"service", "operation", "state"},
	)
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "breaker",
			Name:      "transitions_total",
			Help:      "Circuit breaker state transitions.",
		},
		[]string{"service", "operation", "to"},
	)
	registerer.MustRegister(state, transitions)
	return &BreakerMetrics{service: service, state: state, transitions: transitions}
}

// OnStateChange matches resilience.Config.OnStateChange.
func (m *BreakerMetrics) OnStateChange(operation, _, to string) {
	for _, s := range breakerStates {
		value := 0.0
		if s == to {
			value = 1
		}
		m.state.WithLabelValues(m.service, operation, s).Set(value)
	}
	m.transitions.WithLabelValues(m.service, operation, to).Inc()
}
