package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape returned %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetrics_InstrumentUsesRoutePattern(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
	}

	out := scrape(t, m)
	want := `wardrobe_proxy_http_requests_total{method="GET",route="/api/items/{id}",status="418"} 2`
	if !strings.Contains(out, want) {
		t.Errorf("missing %q in:\n%s", want, out)
	}
	if !strings.Contains(out, "wardrobe_proxy_http_request_duration_seconds_bucket") {
		t.Error("missing latency histogram")
	}
}

func TestMetrics_UnmatchedRoute(t *testing.T) {
	m := NewMetrics()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/known", func(http.ResponseWriter, *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if out := scrape(t, m); !strings.Contains(out, `route="unmatched",status="404"`) {
		t.Errorf("expected unmatched 404 sample in:\n%s", out)
	}
}

func TestMetrics_ObserveUpstream(t *testing.T) {
	m := NewMetrics()
	m.ObserveUpstream("generate", "ok")
	m.ObserveUpstream("generate", "ok")
	m.ObserveUpstream("validate", "error")

	out := scrape(t, m)
	for _, want := range []string{
		`wardrobe_proxy_upstream_calls_total{op="generate",outcome="ok"} 2`,
		`wardrobe_proxy_upstream_calls_total{op="validate",outcome="error"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}
