// Package metrics owns the prometheus registry and the pipeline counters
// a nil *Metrics is valid and records nothing
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "postlens"

// Metrics is the set of counters exported on /metrics
type Metrics struct {
	reg *prometheus.Registry

	imports   *prometheus.CounterVec
	analyses  *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	failures  *prometheus.CounterVec
	xRequests *prometheus.CounterVec
	captures  *prometheus.CounterVec
}

// New builds a fresh registry with process and runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reg: reg,
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "URL imports by outcome.",
		}, []string{"outcome"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Post analyses by outcome.",
		}, []string{"outcome"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractor_fallbacks_total",
			Help:      "Deterministic extractor fallbacks by reason.",
		}, []string{"reason"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractor_provider_failures_total",
			Help:      "LLM provider attempts that produced no usable concepts, by provider and reason.",
		}, []string{"provider", "reason"}),
		xRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "x_requests_total",
			Help:      "Primary API calls by ledger status.",
		}, []string{"status"}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Browser capture calls by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.imports, m.analyses, m.fallbacks, m.failures, m.xRequests, m.captures)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Import counts one import outcome
func (m *Metrics) Import(outcome string) {
	if m != nil {
		m.imports.WithLabelValues(outcome).Inc()
	}
}

// Analysis counts one analysis outcome
func (m *Metrics) Analysis(outcome string) {
	if m != nil {
		m.analyses.WithLabelValues(outcome).Inc()
	}
}

// Fallback counts one deterministic fallback
func (m *Metrics) Fallback(reason string) {
	if m != nil {
		m.fallbacks.WithLabelValues(reason).Inc()
	}
}

// ProviderFailure counts one failed provider attempt
func (m *Metrics) ProviderFailure(provider, reason string) {
	if m != nil {
		m.failures.WithLabelValues(provider, reason).Inc()
	}
}

// XRequest counts one primary API attempt
func (m *Metrics) XRequest(status string) {
	if m != nil {
		m.xRequests.WithLabelValues(status).Inc()
	}
}

// Capture counts one capture call
func (m *Metrics) Capture(outcome string) {
	if m != nil {
		m.captures.WithLabelValues(outcome).Inc()
	}
}

// Value returns the current value of the counter series name{label}, zero when absent
func (m *Metrics) Value(name, label string) float64 {
	if m == nil {
		return 0
	}
	fams, err := m.reg.Gather()
	if err != nil {
		return 0
	}
	for _, f := range fams {
		if f.GetName() != namespace+"_"+name {
			continue
		}
		for _, s := range f.GetMetric() {
			for _, lp := range s.GetLabel() {
				if lp.GetValue() == label {
					return s.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}
