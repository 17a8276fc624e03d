package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gaoych/bean-analyze/internal/config"
	"github.com/gaoych/bean-analyze/internal/provider"
)

func newTestServer(t *testing.T, allowAll bool) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.AllowAllOrigins = allowAll
	client, err := provider.NewClient("http://localhost:0", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return New(cfg, client)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestViewerPage(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "Bean Dependency Viewer") {
		t.Error("viewer page not served")
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, true)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}
