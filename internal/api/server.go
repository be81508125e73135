package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/auth"
	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/notify"
	"github.com/TimurManjosov/goexperiments/internal/telemetry"
)

const (
	maxCommandBytes   = 64 << 10
	heartbeatInterval = 25 * time.Second
)

// Options configures a Server.
type Options struct {
	AdminAPIKey    string
	AdminKeyHashes []string // bcrypt hashes of further admin keys
	RateLimitPerIP int // requests per minute on write routes; 0 means 100
	Logger         zerolog.Logger
	// Hub receives removals made through the API and feeds the change stream.
	// Pass the configurator's publisher so configure batches reach the stream too.
	Hub *notify.Hub
}

// Server exposes experiments and the configure entry point over HTTP.
type Server struct {
	settings     experiment.Settings
	configurator *configure.Configurator
	hub          *notify.Hub
	keys         *auth.KeyChecker
	rateLimit    int
}

func NewServer(store kv.Store, c *configure.Configurator, opts Options) *Server {
	if opts.RateLimitPerIP <= 0 {
		opts.RateLimitPerIP = 100
	}
	if opts.Hub == nil {
		opts.Hub = notify.NewHub()
	}
	return &Server{
		settings:     experiment.Settings{Store: store, Logger: opts.Logger},
		configurator: c,
		hub:          opts.Hub,
		keys:         auth.NewKeyChecker(opts.AdminAPIKey, opts.AdminKeyHashes),
		rateLimit:    opts.RateLimitPerIP,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, telemetry.Middleware)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// long-lived, so outside the request timeout
		r.Get("/experiments/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(5 * time.Second))
			r.Get("/experiments", s.handleList)
			r.Get("/experiments/{name}", s.handleGet)

			// admin (protected, rate limited)
			r.Group(func(r chi.Router) {
				r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
				r.Use(s.authAdmin)
				r.Post("/configure", s.handleConfigure)
				r.Delete("/experiments/{name}", s.handleRemove)
			})
		})
	})

	return r
}

// ---- handlers ----

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	views, etag, err := s.currentViews(r.Context())
	if err != nil {
		s.settings.Logger.Error().Err(err).Msg("list experiments")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to list experiments")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, r, http.StatusOK, listResponse{ETag: etag, Experiments: views})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok, err := experiment.New(name, s.settings).Value(r.Context())
	if err != nil {
		s.settings.Logger.Error().Err(err).Str("experiment", name).Msg("read experiment")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to read experiment")
		return
	}
	// A never-set experiment is a valid, disabled experiment, not a 404.
	writeJSON(w, r, http.StatusOK, newExperimentView(name, v, ok))
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := experiment.New(name, s.settings).Remove(r.Context()); err != nil {
		s.settings.Logger.Error().Err(err).Str("experiment", name).Msg("remove experiment")
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "failed to remove experiment")
		return
	}
	s.hub.Publish(notify.Change{Names: []string{name}})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	body := http.MaxBytesReader(w, r.Body, maxCommandBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "command too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, ErrCodeInvalidJSON, "invalid JSON")
		return
	}

	res, err := s.configurator.Run(r.Context(), req.Command)
	if err != nil {
		s.writeConfigureError(w, r, err)
		return
	}

	actions := make([]actionView, len(res.Actions))
	for i, a := range res.Actions {
		actions[i] = newActionView(a)
	}
	writeJSON(w, r, http.StatusOK, configureResponse{OK: true, Batch: res.BatchID, Actions: actions})
}

func (s *Server) writeConfigureError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, configure.ErrApply) {
		writeError(w, r, http.StatusInternalServerError, ErrCodeInternal, "configuration could not be applied")
		return
	}

	var code ErrorCode
	switch {
	case errors.Is(err, configure.ErrEmptyCommand):
		code = ErrCodeEmptyCommand
	case errors.Is(err, configure.ErrMalformedCommand):
		code = ErrCodeMalformedCommand
	case errors.Is(err, configure.ErrHostMismatch):
		code = ErrCodeHostMismatch
	case errors.Is(err, configure.ErrPathMismatch):
		code = ErrCodePathMismatch
	case errors.Is(err, configure.ErrInvalidValue):
		code = ErrCodeInvalidValue
	default:
		code = ErrCodeInternal
	}

	resp := NewErrorResponse(http.StatusUnprocessableEntity, code, err.Error())
	var invalid *configure.InvalidValuesError
	if errors.As(err, &invalid) {
		fields := make(map[string]string, len(invalid.Items))
		for _, it := range invalid.Items {
			fields[it.Name] = fmt.Sprintf("not a boolean: %q", it.Value)
		}
		resp.WithFields(fields)
	}
	writeErrorResponse(w, r, http.StatusUnprocessableEntity, resp)
}

// ---- middleware & helpers ----

func (s *Server) authAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if got == "" {
			writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "missing bearer token")
			return
		}
		if !s.keys.Check(got) {
			writeError(w, r, http.StatusForbidden, ErrCodeForbidden, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentViews lists the stored experiments together with their ETag.
func (s *Server) currentViews(ctx context.Context) ([]experimentView, string, error) {
	states, err := experiment.Snapshot(ctx, s.settings.Store)
	if err != nil {
		return nil, "", err
	}
	views := viewsFromStates(states)
	etag, err := computeETag(views)
	if err != nil {
		return nil, "", err
	}
	return views, etag, nil
}

// computeETag hashes the JSON form of views into a weak ETag.
func computeETag(views []experimentView) (string, error) {
	blob, err := json.Marshal(views)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"%016x"`, xxhash.Sum64(blob)), nil
}
