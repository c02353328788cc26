package agent

import (
	"github.com/petasbytes/coder-agent/memory"
	"github.com/rs/zerolog"
)

// Option configures a Manager at construction.
type Option func(*Manager)

// WithStore replaces the default in-memory store.
func WithStore(s memory.ConversationStore) Option {
	return func(m *Manager) { m.store = s }
}

// WithSystemInstruction replaces DefaultSystemInstruction for this manager.
func WithSystemInstruction(text string) Option {
	return func(m *Manager) { m.instruction = text }
}

// WithDefaultHistoryID sets the id used when SubmitTurn receives an empty one.
func WithDefaultHistoryID(id string) Option {
	return func(m *Manager) { m.defaultID = id }
}

// WithLenientRoles drops messages with unknown roles instead of failing the turn.
func WithLenientRoles() Option {
	return func(m *Manager) { m.lenient = true }
}

// WithLogger sets the logger for turn events; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}
