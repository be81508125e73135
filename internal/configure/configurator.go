// Package configure applies bulk experiment changes described by a command URL.
//
// A command such as
//
//	myapp://experiments/configure?newCheckout=true&bannerColor=blue&legacyNav
//
// is parsed completely into actions before anything is written, then applied to the
// store as one batch. A command that fails validation changes nothing.
package configure

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/notify"
	"github.com/TimurManjosov/goexperiments/internal/telemetry"
)

// Configurator applies command strings to one store.
// It holds no locks: concurrent callers may interleave their batches.
type Configurator struct {
	store    kv.Store
	log      zerolog.Logger
	gateHost string
	mode     Mode
	pub      Publisher
}

// Publisher is told about every applied, non-empty batch.
type Publisher interface {
	Publish(notify.Change)
}

// Option customizes a Configurator.
type Option func(*Configurator)

// WithGateHost sets the host commands must carry. Empty keeps DefaultGateHost.
func WithGateHost(host string) Option {
	return func(c *Configurator) {
		if host != "" {
			c.gateHost = host
		}
	}
}

// WithMode selects typed or boolean-only value handling.
func WithMode(m Mode) Option {
	return func(c *Configurator) { c.mode = m }
}

// WithLogger sets the diagnostic sink.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Configurator) { c.log = l }
}

// WithPublisher announces applied batches to p.
func WithPublisher(p Publisher) Option {
	return func(c *Configurator) { c.pub = p }
}

// New returns a Configurator for store, typed mode and the default gate host,
// logging to the process-wide default logger unless overridden.
func New(store kv.Store, opts ...Option) *Configurator {
	c := &Configurator{
		store:    store,
		log:      experiment.Defaults().Logger,
		gateHost: DefaultGateHost,
		mode:     ModeTyped,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GateHost returns the host commands must carry.
func (c *Configurator) GateHost() string { return c.gateHost }

// Mode returns the value handling mode.
func (c *Configurator) Mode() Mode { return c.mode }

// Result describes an applied batch.
type Result struct {
	BatchID string
	Actions []Action
}

// Run parses command and, if it is valid, applies all of its actions as one batch.
// The returned error wraps one of the package's sentinel errors.
func (c *Configurator) Run(ctx context.Context, command string) (*Result, error) {
	actions, err := Parse(command, c.gateHost, c.mode)
	if err != nil {
		var invalid *InvalidValuesError
		if errors.As(err, &invalid) {
			for _, it := range invalid.Items {
				c.log.Warn().
					Str("experiment", it.Name).
					Str("value", it.Value).
					Msg("value is not a boolean, rejecting configuration")
			}
		}
		telemetry.ConfigureBatches.WithLabelValues(telemetry.OutcomeRejected).Inc()
		return nil, err
	}

	batchID := uuid.NewString()
	log := c.log.With().Str("batch", batchID).Logger()

	muts := make([]kv.Mutation, len(actions))
	for i, a := range actions {
		muts[i] = a.Mutation()
	}
	if err := kv.ApplyAll(ctx, c.store, muts); err != nil {
		log.Error().Err(err).Int("actions", len(actions)).Msg("configuration not applied")
		telemetry.ConfigureBatches.WithLabelValues(telemetry.OutcomeFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrApply, err)
	}

	telemetry.ConfigureBatches.WithLabelValues(telemetry.OutcomeApplied).Inc()
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name
		telemetry.ConfigureActions.WithLabelValues(a.Op.String()).Inc()
		ev := log.Info().Str("experiment", a.Name)
		if a.Op == OpRemove {
			ev.Msg("experiment removed")
			continue
		}
		ev.Str("kind", a.Value.Kind().String()).
			Str("value", a.Value.String()).
			Msg("experiment set")
	}
	if c.pub != nil && len(actions) > 0 {
		c.pub.Publish(notify.Change{Batch: batchID, Names: names})
	}

	return &Result{BatchID: batchID, Actions: actions}, nil
}

// Configure applies command and reports whether it was applied. Every failure,
// including a store error, is reported as false.
func (c *Configurator) Configure(ctx context.Context, command string) bool {
	_, err := c.Run(ctx, command)
	return err == nil
}

// Configure applies command to the process-wide default store with the default
// gate host in typed mode.
func Configure(ctx context.Context, command string) bool {
	return ConfigureHost(ctx, command, DefaultGateHost)
}

// ConfigureHost is Configure with a custom gate host.
func ConfigureHost(ctx context.Context, command, gateHost string) bool {
	d := experiment.Defaults()
	return New(d.Store, WithLogger(d.Logger), WithGateHost(gateHost)).Configure(ctx, command)
}
