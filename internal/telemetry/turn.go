package telemetry

import (
	"context"

	"github.com/petasbytes/coder-agent/internal/metrics"
	"github.com/petasbytes/coder-agent/memory"
)

// EmitTurnFeatures records per-role text features of the sequence sent to the
// model for the turn in ctx.
func EmitTurnFeatures(ctx context.Context, historyID string, sent []memory.Message) {
	if !ObserveEnabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	byRole := map[string]any{}
	for role, f := range metrics.Summarize(sent) {
		byRole[string(role)] = map[string]any{
			"messages": f.Messages,
			"bytes":    f.Bytes,
			"runes":    f.Runes,
			"words":    f.Words,
			"lines":    f.Lines,
		}
	}
	Emit("turn_features", map[string]any{
		"turn_id":          turnID,
		"history_id":       historyID,
		"features_version": "2",
		"roles":            byRole,
	})
}
