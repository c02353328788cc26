// Package telemetry writes structured turn events as JSON lines and carries
// per-turn identifiers through context.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Emit writes a single JSON line to <dir>/events.jsonl when observation is enabled.
// It augments fields with RFC3339Nano time and the event name.
func Emit(name string, fields map[string]any) {
	c := Current()
	if !c.Observe {
		return
	}

	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: mkdir %s: %v\n", c.Dir, err)
		return
	}

	path := filepath.Join(c.Dir, "events.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "telemetry: open %s: %v\n", path, err)
		return
	}
	defer f.Close()

	// Reserved keys win over caller fields.
	rest := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "time" || k == "event" {
			continue
		}
		rest[k] = v
	}

	l := zerolog.New(f)
	l.Log().
		Str("time", time.Now().UTC().Format(time.RFC3339Nano)).
		Str("event", name).
		Fields(rest).
		Send()
}
