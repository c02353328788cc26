package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/petasbytes/coder-agent/internal/telemetry"
	"github.com/petasbytes/coder-agent/memory"
	"github.com/rs/zerolog"
)

// DefaultHistoryID is used when a caller supplies no history id.
const DefaultHistoryID = "default"

// DefaultSystemInstruction is the coding-assistant directive inserted into new histories.
const DefaultSystemInstruction = "You are a highly skilled coding assistant. Your role is to write code, analyze information, " +
	"and create artifacts based on the tasks provided. Use your expertise to generate accurate " +
	"and efficient code solutions. Do not deviate from coding-related tasks."

// Manager owns a fixed system instruction and the histories of every
// conversation it has served.
type Manager struct {
	name        string
	instruction string
	gen         Generator
	store       memory.ConversationStore
	defaultID   string
	lenient     bool
	log         zerolog.Logger
	locks       keyedMutex
}

// New returns a Manager that delegates generation to gen.
// name is a label for logs only.
func New(name string, gen Generator, opts ...Option) *Manager {
	m := &Manager{
		name:        name,
		instruction: DefaultSystemInstruction,
		gen:         gen,
		defaultID:   DefaultHistoryID,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = memory.NewInMemoryStore()
	}
	m.log = m.log.With().Str("agent", name).Logger()
	return m
}

// Name returns the label given to New.
func (m *Manager) Name() string { return m.name }

// SystemInstruction returns the instruction inserted into histories that lack a system message.
func (m *Manager) SystemInstruction() string { return m.instruction }

// History returns a copy of the stored history for historyID.
// ok is false when no turn has completed for that id.
func (m *Manager) History(ctx context.Context, historyID string) (msgs []memory.Message, ok bool, err error) {
	return m.store.Get(ctx, m.resolveID(historyID))
}

// SubmitTurn appends incoming to the history for historyID, asks the
// generator for a reply over the whole history and records that reply.
// It returns the reply text.
func (m *Manager) SubmitTurn(ctx context.Context, historyID string, incoming []memory.Message) (string, error) {
	id := m.resolveID(historyID)
	translated, err := m.translate(incoming)
	if err != nil {
		return "", err
	}

	ctx, turnID := telemetry.EnsureTurnID(ctx)
	log := m.log.With().Str("history_id", id).Str("turn_id", turnID).Logger()

	unlock := m.locks.lock(id)
	defer unlock()

	prior, _, err := m.store.Get(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load history %q: %w", id, err)
	}

	seq := make([]memory.Message, 0, len(prior)+len(translated)+2)
	if !memory.HasRole(prior, memory.RoleSystem) && !memory.HasRole(translated, memory.RoleSystem) {
		seq = append(seq, memory.System(m.instruction))
	}
	seq = append(seq, prior...)
	seq = append(seq, translated...)

	log.Debug().Int("prior", len(prior)).Int("incoming", len(translated)).Msg("turn started")
	telemetry.Emit("turn_started", map[string]any{
		"turn_id":    turnID,
		"history_id": id,
		"agent":      m.name,
		"prior":      len(prior),
		"incoming":   len(translated),
		"dropped":    len(incoming) - len(translated),
	})
	telemetry.EmitTurnFeatures(ctx, id, seq)

	sent := make([]memory.Message, len(seq))
	copy(sent, seq)

	start := time.Now()
	resp, err := m.gen.Generate(ctx, sent)
	elapsed := time.Since(start)
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = ErrEmptyReply
	}
	if err != nil {
		log.Warn().Err(err).Dur("duration", elapsed).Msg("generation failed")
		telemetry.Emit("turn_failed", map[string]any{
			"turn_id":     turnID,
			"history_id":  id,
			"duration_ms": elapsed.Milliseconds(),
			"error":       "generation failure",
		})
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}

	reply := memory.Assistant(resp.Content)
	seq = append(seq, reply)
	// The generation already happened; record it even if the caller has gone away.
	if err := m.store.Put(context.WithoutCancel(ctx), id, seq); err != nil {
		return "", fmt.Errorf("store history %q: %w", id, err)
	}

	log.Info().
		Int("history_len", len(seq)).
		Int("reply_bytes", len(reply.Content)).
		Dur("duration", elapsed).
		Msg("turn completed")
	telemetry.Emit("turn_completed", map[string]any{
		"turn_id":     turnID,
		"history_id":  id,
		"history_len": len(seq),
		"duration_ms": elapsed.Milliseconds(),
		"reply_bytes": len(reply.Content),
	})
	return reply.Content, nil
}

func (m *Manager) resolveID(id string) string {
	if id == "" {
		return m.defaultID
	}
	return id
}

// translate validates incoming messages. In lenient mode unknown roles are
// dropped and the remaining messages keep their relative order.
func (m *Manager) translate(incoming []memory.Message) ([]memory.Message, error) {
	out := make([]memory.Message, 0, len(incoming))
	for i, in := range incoming {
		role, err := memory.ParseRole(string(in.Role))
		if err != nil {
			if m.lenient {
				m.log.Debug().Int("index", i).Str("role", string(in.Role)).Msg("dropping message with unknown role")
				continue
			}
			return nil, &RoleError{Index: i, Role: string(in.Role)}
		}
		if strings.TrimSpace(in.Content) == "" {
			return nil, &ContentError{Index: i}
		}
		out = append(out, memory.Message{Role: role, Content: in.Content})
	}
	return out, nil
}
