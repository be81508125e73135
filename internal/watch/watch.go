// Package watch applies configure commands read from a file whenever it changes.
//
// The file holds one command per line. Blank lines and lines starting with '#' are
// ignored. Each line is an independent batch: a rejected line is logged and the
// next one is still applied.
package watch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/configure"
)

// Runner is the part of a configure.Configurator the watcher needs.
type Runner interface {
	Run(ctx context.Context, command string) (*configure.Result, error)
}

// Watcher feeds the lines of one file to a Runner.
type Watcher struct {
	path   string
	runner Runner
	log    zerolog.Logger
}

func New(path string, r Runner, log zerolog.Logger) *Watcher {
	return &Watcher{path: path, runner: r, log: log.With().Str("file", path).Logger()}
}

// Summary counts the outcome of one pass over the file.
type Summary struct {
	Applied  int
	Rejected int
}

// ApplyFile reads the file once and runs every command in it, in file order.
func (w *Watcher) ApplyFile(ctx context.Context) (Summary, error) {
	var sum Summary
	f, err := os.Open(w.path)
	if err != nil {
		return sum, fmt.Errorf("open command file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := w.runner.Run(ctx, line); err != nil {
			sum.Rejected++
			w.log.Warn().Err(err).Int("line", lineNo).Msg("command not applied")
			continue
		}
		sum.Applied++
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("read command file: %w", err)
	}
	return sum, nil
}

// Run applies the file once, then again after every write until ctx is done.
// The parent directory is watched so that editors replacing the file are noticed.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.applyAndLog(ctx)

	target := filepath.Clean(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.applyAndLog(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.log.Error().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) applyAndLog(ctx context.Context) {
	sum, err := w.ApplyFile(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("command file not applied")
		return
	}
	w.log.Info().Int("applied", sum.Applied).Int("rejected", sum.Rejected).Msg("command file applied")
}
