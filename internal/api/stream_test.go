package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/notify"
)

// sseEvent is one parsed Server-Sent Event.
type sseEvent struct {
	Event string
	Data  map[string]string
}

// readEvents parses events from body until it closes.
func readEvents(t *testing.T, body *bufio.Scanner) <-chan sseEvent {
	t.Helper()
	events := make(chan sseEvent, 10)
	go func() {
		defer close(events)
		var name, data string
		for body.Scan() {
			line := body.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "" && name != "":
				var m map[string]string
				_ = json.Unmarshal([]byte(data), &m)
				events <- sseEvent{Event: name, Data: m}
				name, data = "", ""
			}
		}
	}()
	return events
}

func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return sseEvent{}
	}
}

func TestStream_InitAndUpdates(t *testing.T) {
	st := kv.NewMemoryStore()
	hub := notify.NewHub()
	c := configure.New(st, configure.WithLogger(zerolog.Nop()), configure.WithPublisher(hub))
	srv := NewServer(st, c, Options{AdminAPIKey: testAdminKey, Logger: zerolog.Nop(), Hub: hub})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/experiments/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	events := readEvents(t, bufio.NewScanner(resp.Body))
	initEv := nextEvent(t, events)
	assert.Equal(t, "init", initEv.Event)
	assert.NotEmpty(t, initEv.Data["etag"])

	// configure batch
	rr := do(t, srv.Router(), http.MethodPost, "/v1/configure",
		configureBody("app://experiments/configure?a=true&b=2"), admin())
	require.Equal(t, http.StatusOK, rr.Code)
	var applied configureResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &applied))

	upd := nextEvent(t, events)
	assert.Equal(t, "update", upd.Event)
	assert.Equal(t, applied.Batch, upd.Data["batch"])
	assert.Equal(t, "a,b", upd.Data["experiments"])
	assert.NotEqual(t, initEv.Data["etag"], upd.Data["etag"])

	// removal through the API
	rr = do(t, srv.Router(), http.MethodDelete, "/v1/experiments/a", "", admin())
	require.Equal(t, http.StatusNoContent, rr.Code)

	rm := nextEvent(t, events)
	assert.Equal(t, "update", rm.Event)
	assert.Empty(t, rm.Data["batch"])
	assert.Equal(t, "a", rm.Data["experiments"])
}

func TestStream_UnsubscribesOnDisconnect(t *testing.T) {
	st := kv.NewMemoryStore()
	hub := notify.NewHub()
	srv := NewServer(st, configure.New(st, configure.WithLogger(zerolog.Nop())), Options{Logger: zerolog.Nop(), Hub: hub})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/experiments/stream", nil)
	require.NoError(t, err)
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	nextEvent(t, readEvents(t, bufio.NewScanner(resp.Body)))
	assert.Equal(t, 1, hub.Subscribers())

	cancel()
	resp.Body.Close()
	assert.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
