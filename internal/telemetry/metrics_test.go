package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/experiments/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/experiments/{name}", "GET", "Not Found"))

	req := httptest.NewRequest(http.MethodGet, "/v1/experiments/darkMode", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	after := testutil.ToFloat64(httpReqs.WithLabelValues("/v1/experiments/{name}", "GET", "Not Found"))
	if after != before+1 {
		t.Errorf("Expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()
}

func TestMiddleware_KeepsFlusherReachable(t *testing.T) {
	var flushErr error
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
		flushErr = http.NewResponseController(w).Flush()
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stream", nil))
	if flushErr != nil {
		t.Errorf("Expected flush through middleware, got %v", flushErr)
	}
	if !rr.Flushed {
		t.Error("Expected underlying recorder to be flushed")
	}
}
