// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// HTTPRequest is a helper for making test HTTP requests.
type HTTPRequest struct {
	Method  string
	Path    string
	Body    string
	Headers map[string]string
}

// Do executes the HTTP request and returns the response recorder.
func (r *HTTPRequest) Do(t *testing.T, handler http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.Body != "" {
		body = bytes.NewBufferString(r.Body)
	}
	req := httptest.NewRequest(r.Method, r.Path, body)
	if r.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// SeedExperiments stores each value under its experiment's storage key.
func SeedExperiments(ctx context.Context, st kv.Store, values map[string]kv.Value) error {
	for name, v := range values {
		if err := st.Set(ctx, experiment.StorageKey(name), v); err != nil {
			return err
		}
	}
	return nil
}

// Lookup reads an experiment straight from the store, failing the test on error.
func Lookup(t *testing.T, st kv.Store, name string) (kv.Value, bool) {
	t.Helper()
	v, ok, err := st.Get(context.Background(), experiment.StorageKey(name))
	if err != nil {
		t.Fatalf("get %s: %v", name, err)
	}
	return v, ok
}

// NewLogger returns a JSON logger writing into the returned buffer.
func NewLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}
