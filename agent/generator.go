package agent

import (
	"context"

	"github.com/petasbytes/coder-agent/memory"
)

// Generator produces the next message for an ordered conversation.
// The returned message is recorded as the assistant's reply.
type Generator interface {
	Generate(ctx context.Context, msgs []memory.Message) (memory.Message, error)
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, msgs []memory.Message) (memory.Message, error)

func (f GeneratorFunc) Generate(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
	return f(ctx, msgs)
}
