package experiment

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/TimurManjosov/goexperiments/internal/kv"
	"github.com/TimurManjosov/goexperiments/internal/logging"
)

// Settings is the store and diagnostic sink experiments operate on.
type Settings struct {
	Store  kv.Store
	Logger zerolog.Logger
}

var defaults atomic.Pointer[Settings]

func init() {
	defaults.Store(&Settings{
		Store:  kv.NewMemoryStore(),
		Logger: logging.Stdout(),
	})
}

// SetDefaults replaces the process-wide settings used by Named and by the
// package-level configure entry points. Call it once at startup, before any
// experiment is read. A nil Store keeps the current one.
func SetDefaults(s Settings) {
	if s.Store == nil {
		s.Store = Defaults().Store
	}
	defaults.Store(&s)
}

// Defaults returns the active process-wide settings.
func Defaults() Settings {
	return *defaults.Load()
}
