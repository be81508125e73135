package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/api"
	"github.com/TimurManjosov/goexperiments/internal/config"
	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/logging"
	"github.com/TimurManjosov/goexperiments/internal/notify"
	"github.com/TimurManjosov/goexperiments/internal/telemetry"
	"github.com/TimurManjosov/goexperiments/internal/watch"
	"github.com/TimurManjosov/goexperiments/internal/webhook"
)

func main() {
	bootLog := logging.Stdout()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		bootLog.Fatal().Err(err).Msg("config")
	}

	log, err := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("logger")
	}
	mode, err := cfg.Mode()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := kv.NewStore(ctx, cfg.StoreType, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.StoreType).Msg("store")
	}
	defer store.Close()

	experiment.SetDefaults(experiment.Settings{Store: store, Logger: log})
	hub := notify.NewHub()
	configurator := configure.New(store,
		configure.WithGateHost(cfg.GateHost),
		configure.WithMode(mode),
		configure.WithLogger(log),
		configure.WithPublisher(hub),
	)
	log.Info().
		Str("store", cfg.StoreType).
		Str("gate_host", configurator.GateHost()).
		Str("mode", configurator.Mode().String()).
		Msg("experiments ready")

	if len(cfg.WebhookURLs) > 0 {
		targets := make([]webhook.Target, len(cfg.WebhookURLs))
		for i, u := range cfg.WebhookURLs {
			targets[i] = webhook.Target{URL: u, Secret: cfg.WebhookSecret}
		}
		dispatcher := webhook.NewDispatcher(targets, log)
		dispatcher.Start()
		defer dispatcher.Close()

		changes, unsub := hub.Subscribe()
		defer unsub()
		go dispatcher.Listen(ctx, changes)
		log.Info().Int("targets", len(targets)).Msg("webhooks enabled")
	}

	if cfg.WatchFile != "" {
		go watchCommands(ctx, watch.New(cfg.WatchFile, configurator, log), log)
	}

	telemetry.Init()
	srvAPI := api.NewServer(store, configurator, api.Options{
		AdminAPIKey:    cfg.AdminAPIKey,
		AdminKeyHashes: cfg.AdminKeyHashes,
		RateLimitPerIP: cfg.RateLimitPerIP,
		Logger:         log,
		Hub:            hub,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 0, // change stream is long-lived
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	ctxShut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShut)
	log.Info().Msg("stopped")
}

func watchCommands(ctx context.Context, w *watch.Watcher, log zerolog.Logger) {
	if err := w.Run(ctx); err != nil {
		log.Error().Err(err).Msg("command file watcher stopped")
	}
}
