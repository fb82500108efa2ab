package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/middleware"
	handler "github.com/atinyakov/WardrobeKeeper/internal/server/handler/http"
)

func newTestRouter(fake *fakeGatewayService, opts handler.RouterOptions) http.Handler {
	metrics := middleware.NewMetrics()
	h := &handler.GatewayHandler{Service: fake, Observer: metrics}
	return handler.NewRouter(h, metrics, zap.NewNop(), opts)
}

func TestRouter_Routes(t *testing.T) {
	fake := &fakeGatewayService{envelope: []byte(`{}`), valid: true}
	r := newTestRouter(fake, handler.RouterOptions{})

	tests := []struct {
		method, path, body, contentType string
		want                            int
	}{
		{http.MethodGet, "/api/health", "", "", http.StatusOK},
		{http.MethodPost, "/api/gemini/generate", `{"prompt":"hi"}`, "application/json", http.StatusOK},
		{http.MethodPost, "/api/gemini/generate", `{"prompt":"hi"}`, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodGet, "/api/gemini/generate", "", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/gemini/validate", "", "", http.StatusOK},
		{http.MethodGet, "/api/unknown", "", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path+" "+tt.contentType, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d; want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	fake := &fakeGatewayService{envelope: []byte(`{}`)}
	r := newTestRouter(fake, handler.RouterOptions{MaxBodyBytes: 64})

	body := `{"prompt":"` + strings.Repeat("x", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/gemini/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d; want 413", w.Code)
	}
	if fake.generateCalled {
		t.Error("service must not see oversized bodies")
	}
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(&fakeGatewayService{}, handler.RouterOptions{})

	req := httptest.NewRequest(http.MethodOptions, "/api/gemini/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q; want *", got)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(&fakeGatewayService{envelope: []byte(`{}`)}, handler.RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/gemini/generate", strings.NewReader(`{"prompt":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	out := w.Body.String()
	for _, want := range []string{
		`wardrobe_proxy_http_requests_total{method="POST",route="/api/gemini/generate",status="200"} 1`,
		`wardrobe_proxy_upstream_calls_total{op="generate",outcome="ok"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}
