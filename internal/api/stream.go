package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// handleStream sends Server-Sent Events: "init" with the current ETag, then one
// "update" per applied change. Comment lines keep idle connections open.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	changes, unsub := s.hub.Subscribe()
	defer unsub()

	_, etag, err := s.currentViews(ctx)
	if err != nil {
		s.settings.Logger.Error().Err(err).Msg("stream init")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to list experiments")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "init", map[string]string{"etag": etag}); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		s.settings.Logger.Warn().Err(err).Msg("stream not flushable")
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case c, ok := <-changes:
			if !ok {
				return
			}
			_, etag, err := s.currentViews(ctx)
			if err != nil {
				s.settings.Logger.Error().Err(err).Msg("stream update")
				return
			}
			data := map[string]string{
				"etag":        etag,
				"batch":       c.Batch,
				"experiments": strings.Join(c.Names, ","),
			}
			if err := writeEvent(w, "update", data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	blob, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, blob)
	return err
}
