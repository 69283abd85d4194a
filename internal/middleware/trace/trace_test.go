package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"khetbook/internal/log"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	cfg := log.DefaultConfig()
	cfg.Output = &buf
	m := NewMiddleware(log.New(cfg), func(*http.Request) string { return "10.0.0.1" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/crops", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id in context = %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header id = %q, want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if m.Requests() != 1 {
		t.Fatalf("Requests = %d", m.Requests())
	}
	out := buf.String()
	for _, want := range []string{"HTTP request started", "HTTP request completed", "status_code=404", "client_ip=10.0.0.1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Fatalf("ids collide: %s", a)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Fatalf("GetRequestID = %q, want empty", id)
	}
}
