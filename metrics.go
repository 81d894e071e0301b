package nasc

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "nasc"

// Metrics holds the prometheus collectors updated by a container.
type Metrics struct {
	activations   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	liveScopes    prometheus.Gauge
	disposals     prometheus.Counter
	disposeErrors prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "activations_total",
			Help:      "Number of service activations, by lifetime.",
		}, []string{"lifetime"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "activation_failures_total",
			Help:      "Number of failed service activations, by reason.",
		}, []string{"reason"}),
		liveScopes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "scopes_live",
			Help:      "Number of scopes created and not yet disposed.",
		}),
		disposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "scope_disposals_total",
			Help:      "Number of disposed scopes.",
		}),
		disposeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dispose_errors_total",
			Help:      "Number of manager or child failures seen during disposal.",
		}),
	}

	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.activations, m.failures, m.liveScopes, m.disposals, m.disposeErrors}
}

func (m *Metrics) activated(l Lifetime) {
	if m != nil {
		m.activations.WithLabelValues(l.String()).Inc()
	}
}

func (m *Metrics) failed(reason string) {
	if m != nil {
		m.failures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) scopeOpened() {
	if m != nil {
		m.liveScopes.Inc()
	}
}

func (m *Metrics) scopeDisposed(errs int) {
	if m != nil {
		m.liveScopes.Dec()
		m.disposals.Inc()
		m.disposeErrors.Add(float64(errs))
	}
}
