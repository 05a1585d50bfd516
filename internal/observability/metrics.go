package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the auth layer
type Metrics struct {
	registry *prometheus.Registry

	InterceptionsTotal *prometheus.CounterVec
	DecisionsTotal     *prometheus.CounterVec
	LoginsTotal        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry
// together with the Go and process collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		InterceptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_auth_interceptions_total",
				Help: "Requests seen by the authentication interceptor, by outcome",
			},
			[]string{"outcome"},
		),
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_access_decisions_total",
				Help: "Access policy decisions, by matched rule and decision",
			},
			[]string{"rule", "decision"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_logins_total",
				Help: "Login attempts, by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.InterceptionsTotal,
		m.DecisionsTotal,
		m.LoginsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RecordInterception counts one interceptor outcome. Safe on a nil receiver.
func (m *Metrics) RecordInterception(outcome string) {
	if m == nil {
		return
	}
	m.InterceptionsTotal.WithLabelValues(outcome).Inc()
}

// RecordDecision counts one access policy decision. Safe on a nil receiver.
func (m *Metrics) RecordDecision(rule, decision string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(rule, decision).Inc()
}

// RecordLogin counts a login attempt. Safe on a nil receiver.
func (m *Metrics) RecordLogin(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
