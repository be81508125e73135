package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/cli"
	"github.com/TimurManjosov/goexperiments/internal/client"
	"github.com/TimurManjosov/goexperiments/internal/configure"
	"github.com/TimurManjosov/goexperiments/internal/experiment"
	"github.com/TimurManjosov/goexperiments/internal/kv"
)

// backend is where commands read and write experiments: a local store or a server.
type backend interface {
	Get(ctx context.Context, name string) (cli.ExperimentRow, error)
	List(ctx context.Context) ([]cli.ExperimentRow, error)
	Configure(ctx context.Context, command string) (batch string, rows []cli.ActionRow, err error)
	// Set stores raw, typed the way configure commands type values, and returns the kind.
	Set(ctx context.Context, name, raw string) (kind string, err error)
	Remove(ctx context.Context, name string) error
	Close()
}

type localBackend struct {
	store        kv.Store
	settings     experiment.Settings
	configurator *configure.Configurator
}

func newLocalBackend(ctx context.Context, cfg *cli.Config, log zerolog.Logger) (*localBackend, error) {
	m, err := configure.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	st, err := kv.NewStore(ctx, cfg.Store, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Debug().Str("store", cfg.Store).Str("dsn", cfg.DSN).Msg("store opened")

	return &localBackend{
		store:    st,
		settings: experiment.Settings{Store: st, Logger: log},
		configurator: configure.New(st,
			configure.WithGateHost(cfg.GateHost),
			configure.WithMode(m),
			configure.WithLogger(log),
		),
	}, nil
}

func (b *localBackend) Get(ctx context.Context, name string) (cli.ExperimentRow, error) {
	v, ok, err := experiment.New(name, b.settings).Value(ctx)
	if err != nil {
		return cli.ExperimentRow{}, err
	}
	return cli.NewExperimentRow(name, v, ok), nil
}

func (b *localBackend) List(ctx context.Context) ([]cli.ExperimentRow, error) {
	states, err := experiment.Snapshot(ctx, b.store)
	if err != nil {
		return nil, err
	}
	return cli.RowsFromStates(states), nil
}

func (b *localBackend) Configure(ctx context.Context, command string) (string, []cli.ActionRow, error) {
	res, err := b.configurator.Run(ctx, command)
	if err != nil {
		return "", nil, err
	}
	return res.BatchID, cli.ActionRows(res.Actions), nil
}

func (b *localBackend) Set(ctx context.Context, name, raw string) (string, error) {
	v := configure.Coerce(raw)
	if err := experiment.New(name, b.settings).Set(ctx, v); err != nil {
		return "", err
	}
	return v.Kind().String(), nil
}

func (b *localBackend) Remove(ctx context.Context, name string) error {
	return experiment.New(name, b.settings).Remove(ctx)
}

func (b *localBackend) Close() { _ = b.store.Close() }

// remoteBackend sends everything to a server. Single-experiment writes become
// one-item configure commands for the configured gate host.
type remoteBackend struct {
	client   *client.Client
	gateHost string
}

func newRemoteBackend(cfg *cli.Config) *remoteBackend {
	return &remoteBackend{client: client.NewClient(cfg.Server, cfg.APIKey), gateHost: cfg.GateHost}
}

func (b *remoteBackend) Get(ctx context.Context, name string) (cli.ExperimentRow, error) {
	exp, err := b.client.GetExperiment(ctx, name)
	if err != nil {
		return cli.ExperimentRow{}, err
	}
	return rowFromClient(*exp), nil
}

func (b *remoteBackend) List(ctx context.Context) ([]cli.ExperimentRow, error) {
	exps, err := b.client.ListExperiments(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]cli.ExperimentRow, len(exps))
	for i, e := range exps {
		rows[i] = rowFromClient(e)
	}
	return rows, nil
}

func (b *remoteBackend) Configure(ctx context.Context, command string) (string, []cli.ActionRow, error) {
	res, err := b.client.Configure(ctx, command)
	if err != nil {
		return "", nil, err
	}
	rows := make([]cli.ActionRow, len(res.Actions))
	for i, a := range res.Actions {
		rows[i] = cli.ActionRow{Name: a.Name, Op: a.Op, Kind: a.Kind, Value: a.Value}
	}
	return res.Batch, rows, nil
}

func (b *remoteBackend) Set(ctx context.Context, name, raw string) (string, error) {
	if raw == "" {
		return "", errEmptyValue
	}
	res, err := b.client.Configure(ctx, singleCommand(b.gateHost, name, raw))
	if err != nil {
		return "", err
	}
	if len(res.Actions) != 1 {
		return "", fmt.Errorf("server applied %d actions, expected 1", len(res.Actions))
	}
	return res.Actions[0].Kind, nil
}

func (b *remoteBackend) Remove(ctx context.Context, name string) error {
	return b.client.RemoveExperiment(ctx, name)
}

func (b *remoteBackend) Close() {}

func rowFromClient(e client.Experiment) cli.ExperimentRow {
	return cli.ExperimentRow{Name: e.Name, Exists: e.Exists, Enabled: e.Enabled, Kind: e.Kind, Value: e.Value}
}

var errEmptyValue = errors.New("empty value would remove the experiment")

// singleCommand builds a configure command setting name to raw.
func singleCommand(gateHost, name, raw string) string {
	return fmt.Sprintf("experiments-cli://%s/configure?%s=%s", gateHost, escape(name), escape(raw))
}

// escape percent-encodes s so that it decodes back unchanged; spaces become %20
// because '+' is read literally.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
