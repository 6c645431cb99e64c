package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	kit "postlens/internal/platform/testkit"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	t.Parallel()

	m := New()
	m.Import("cached")
	m.Import("cached")
	m.Analysis("analyzed")
	m.Fallback("provider_error")
	m.ProviderFailure("openai", "provider_error")
	m.ProviderFailure("openai", "provider_error")
	m.XRequest("rate_limited")
	m.Capture("ok")

	if got := testutil.ToFloat64(m.imports.WithLabelValues("cached")); got != 2 {
		t.Fatalf("imports{cached} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.fallbacks.WithLabelValues("provider_error")); got != 1 {
		t.Fatalf("fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("openai", "provider_error")); got != 2 {
		t.Fatalf("provider failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.xRequests.WithLabelValues("rate_limited")); got != 1 {
		t.Fatalf("x requests = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	kit.MustNotPanic(t, func() {
		m.Import("x")
		m.Analysis("x")
		m.Fallback("x")
		m.ProviderFailure("x", "y")
		m.XRequest("x")
		m.Capture("x")
	})
	if m.Registry() != nil {
		t.Fatalf("nil Registry() should be nil")
	}
}

func TestHandlerServesText(t *testing.T) {
	t.Parallel()

	m := New()
	m.Analysis("failed")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	kit.MustContain(t, rec.Body.String(), `postlens_analyses_total{outcome="failed"} 1`)
}

func TestValue(t *testing.T) {
	t.Parallel()

	m := New()
	m.Fallback("no_provider")
	m.Fallback("no_provider")

	if got := m.Value("extractor_fallbacks_total", "no_provider"); got != 2 {
		t.Fatalf("Value = %v, want 2", got)
	}
	if got := m.Value("extractor_fallbacks_total", "decode_error"); got != 0 {
		t.Fatalf("absent series = %v, want 0", got)
	}
	var nilM *Metrics
	if nilM.Value("imports_total", "x") != 0 {
		t.Fatalf("nil metrics should report 0")
	}
}
