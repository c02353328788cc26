package telemetry

import (
	"os"
	"sync"
)

// Config controls JSONL event emission.
type Config struct {
	// Observe enables writing events to Dir/events.jsonl.
	Observe bool
	// Dir is the artifacts directory; empty means ".agent".
	Dir string
}

const defaultDir = ".agent"

var (
	mu  sync.RWMutex
	cfg Config
)

func init() {
	// Startup defaults come from the environment; Configure overrides them.
	cfg = Config{
		Observe: os.Getenv("AGT_OBSERVE_JSON") == "1",
		Dir:     os.Getenv("AGT_ARTIFACTS_DIR"),
	}
}

// Configure replaces the process-wide telemetry settings.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}

// Current returns the active settings with the directory default applied.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	c := cfg
	if c.Dir == "" {
		c.Dir = defaultDir
	}
	return c
}

// ObserveEnabled reports whether JSONL emission is on.
func ObserveEnabled() bool { return Current().Observe }
