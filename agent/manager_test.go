package agent_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/petasbytes/coder-agent/agent"
	"github.com/petasbytes/coder-agent/internal/telemetry"
	"github.com/petasbytes/coder-agent/memory"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instr = "you write code"

// fakeGen replies R1, R2, ... and records every sequence it was given.
type fakeGen struct {
	mu    sync.Mutex
	calls [][]memory.Message
	err   error
}

func (f *fakeGen) Generate(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return memory.Message{}, f.err
	}
	return memory.Assistant(fmt.Sprintf("R%d", len(f.calls))), nil
}

func (f *fakeGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newManager(gen agent.Generator, opts ...agent.Option) *agent.Manager {
	return agent.New("CodeAssistant", gen, append([]agent.Option{agent.WithSystemInstruction(instr)}, opts...)...)
}

func history(t *testing.T, m *agent.Manager, id string) []memory.Message {
	t.Helper()
	msgs, _, err := m.History(context.Background(), id)
	require.NoError(t, err)
	return msgs
}

func TestSubmitTurn_TwoTurnScenario(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{}
	m := newManager(gen)

	reply, err := m.SubmitTurn(ctx, "s1", []memory.Message{memory.User("hi")})
	require.NoError(t, err)
	assert.Equal(t, "R1", reply)
	assert.Equal(t, []memory.Message{memory.System(instr), memory.User("hi"), memory.Assistant("R1")}, history(t, m, "s1"))

	reply, err = m.SubmitTurn(ctx, "s1", []memory.Message{memory.User("again")})
	require.NoError(t, err)
	assert.Equal(t, "R2", reply)
	assert.Equal(t, []memory.Message{
		memory.System(instr),
		memory.User("hi"),
		memory.Assistant("R1"),
		memory.User("again"),
		memory.Assistant("R2"),
	}, history(t, m, "s1"))

	require.Len(t, gen.calls, 2)
	assert.Equal(t, []memory.Message{memory.System(instr), memory.User("hi"), memory.Assistant("R1"), memory.User("again")}, gen.calls[1])
}

func TestSubmitTurn_SystemInstructionInsertedOnce(t *testing.T) {
	ctx := context.Background()
	m := newManager(&fakeGen{})

	for i := 0; i < 5; i++ {
		_, err := m.SubmitTurn(ctx, "s", []memory.Message{memory.User(fmt.Sprintf("q%d", i))})
		require.NoError(t, err)
	}

	msgs := history(t, m, "s")
	require.Len(t, msgs, 1+2*5)
	systems := 0
	for _, msg := range msgs {
		if msg.Role == memory.RoleSystem {
			systems++
		}
	}
	assert.Equal(t, 1, systems)
	assert.Equal(t, memory.System(instr), msgs[0])
}

func TestSubmitTurn_EmptyTurnSendsOnlyInstruction(t *testing.T) {
	gen := &fakeGen{}
	m := newManager(gen)

	_, err := m.SubmitTurn(context.Background(), "empty", nil)
	require.NoError(t, err)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, []memory.Message{memory.System(instr)}, gen.calls[0])
}

func TestSubmitTurn_CallerSystemMessageSuppressesInstruction(t *testing.T) {
	gen := &fakeGen{}
	m := newManager(gen)

	in := []memory.Message{memory.User("hi"), memory.System("custom rules")}
	_, err := m.SubmitTurn(context.Background(), "s", in)
	require.NoError(t, err)

	assert.Equal(t, in, gen.calls[0])
	_, err = m.SubmitTurn(context.Background(), "s", []memory.Message{memory.User("next")})
	require.NoError(t, err)
	assert.NotContains(t, history(t, m, "s"), memory.System(instr))
}

func TestSubmitTurn_InvalidRoleIsRejected(t *testing.T) {
	gen := &fakeGen{}
	m := newManager(gen)

	_, err := m.SubmitTurn(context.Background(), "s", []memory.Message{
		memory.User("ok"),
		{Role: "tool", Content: "result"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrInvalidRole)

	var re *agent.RoleError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)
	assert.Equal(t, "tool", re.Role)

	assert.Zero(t, gen.callCount())
	_, ok, err := m.History(context.Background(), "s")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitTurn_LenientDropsUnknownRolesKeepingOrder(t *testing.T) {
	gen := &fakeGen{}
	m := newManager(gen, agent.WithLenientRoles())

	_, err := m.SubmitTurn(context.Background(), "s", []memory.Message{
		memory.User("first"),
		{Role: "function", Content: "ignored"},
		memory.Assistant("second"),
		{Role: "", Content: "ignored too"},
		memory.User("third"),
	})
	require.NoError(t, err)

	assert.Equal(t, []memory.Message{
		memory.System(instr),
		memory.User("first"),
		memory.Assistant("second"),
		memory.User("third"),
	}, gen.calls[0])
}

func TestSubmitTurn_EmptyContentIsRejected(t *testing.T) {
	gen := &fakeGen{}
	m := newManager(gen)

	_, err := m.SubmitTurn(context.Background(), "s", []memory.Message{memory.User("  \n")})
	assert.ErrorIs(t, err, agent.ErrEmptyContent)
	assert.Zero(t, gen.callCount())
}

func TestSubmitTurn_HistoriesAreIsolated(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{}
	m := newManager(gen)

	_, err := m.SubmitTurn(ctx, "a", []memory.Message{memory.User("for a")})
	require.NoError(t, err)
	_, err = m.SubmitTurn(ctx, "b", []memory.Message{memory.User("for b")})
	require.NoError(t, err)

	assert.Equal(t, []memory.Message{memory.System(instr), memory.User("for b")}, gen.calls[1])
	assert.Equal(t, []memory.Message{memory.System(instr), memory.User("for a"), memory.Assistant("R1")}, history(t, m, "a"))
	assert.Equal(t, []memory.Message{memory.System(instr), memory.User("for b"), memory.Assistant("R2")}, history(t, m, "b"))
}

func TestSubmitTurn_GenerationFailureOnFreshID_LeavesNoState(t *testing.T) {
	boom := errors.New("rate limited")
	m := newManager(&fakeGen{err: boom})

	_, err := m.SubmitTurn(context.Background(), "fresh", []memory.Message{memory.User("hi")})
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrGenerationFailure)
	assert.ErrorIs(t, err, boom)

	msgs, ok, err := m.History(context.Background(), "fresh")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, msgs)
}

func TestSubmitTurn_GenerationFailureKeepsPriorHistory(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGen{}
	m := newManager(gen)

	_, err := m.SubmitTurn(ctx, "s", []memory.Message{memory.User("hi")})
	require.NoError(t, err)
	before := history(t, m, "s")

	gen.err = errors.New("network down")
	_, err = m.SubmitTurn(ctx, "s", []memory.Message{memory.User("again")})
	require.ErrorIs(t, err, agent.ErrGenerationFailure)

	assert.Equal(t, before, history(t, m, "s"))
}

func TestSubmitTurn_EmptyIDUsesDefault(t *testing.T) {
	ctx := context.Background()
	m := newManager(&fakeGen{})

	_, err := m.SubmitTurn(ctx, "", []memory.Message{memory.User("hi")})
	require.NoError(t, err)

	assert.Len(t, history(t, m, agent.DefaultHistoryID), 3)
}

func TestSubmitTurn_CustomDefaultID(t *testing.T) {
	ctx := context.Background()
	store := memory.NewInMemoryStore()
	m := newManager(&fakeGen{}, agent.WithDefaultHistoryID("proc-42"), agent.WithStore(store))

	_, err := m.SubmitTurn(ctx, "", []memory.Message{memory.User("hi")})
	require.NoError(t, err)

	assert.Equal(t, []string{"proc-42"}, store.IDs())
}

func TestSubmitTurn_ReplyRecordedAsAssistant(t *testing.T) {
	gen := agent.GeneratorFunc(func(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
		return memory.Message{Role: "model", Content: "done"}, nil
	})
	m := newManager(gen)

	reply, err := m.SubmitTurn(context.Background(), "s", []memory.Message{memory.User("go")})
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	msgs := history(t, m, "s")
	assert.Equal(t, memory.Assistant("done"), msgs[len(msgs)-1])
}

func TestSubmitTurn_GeneratorCannotMutateHistory(t *testing.T) {
	gen := agent.GeneratorFunc(func(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
		for i := range msgs {
			msgs[i].Content = "scribbled"
		}
		return memory.Assistant("ok"), nil
	})
	m := newManager(gen)

	_, err := m.SubmitTurn(context.Background(), "s", []memory.Message{memory.User("hi")})
	require.NoError(t, err)
	assert.Equal(t, memory.User("hi"), history(t, m, "s")[1])
}

func TestSubmitTurn_PassesContextThrough(t *testing.T) {
	type key struct{}
	var seen context.Context
	gen := agent.GeneratorFunc(func(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
		seen = ctx
		return memory.Assistant("ok"), ctx.Err()
	})
	m := newManager(gen)

	ctx := telemetry.WithTurnID(context.WithValue(context.Background(), key{}, "v"), "turn-1")
	_, err := m.SubmitTurn(ctx, "s", []memory.Message{memory.User("hi")})
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "v", seen.Value(key{}))
	id, ok := telemetry.TurnIDFromContext(seen)
	assert.True(t, ok)
	assert.Equal(t, "turn-1", id)
}

func TestSubmitTurn_CancelledContextFailsBeforeGeneration(t *testing.T) {
	gen := &fakeGen{}
	m := newManager(gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.SubmitTurn(ctx, "s", []memory.Message{memory.User("hi")})
	// The store rejects a cancelled context before generation is attempted.
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, agent.ErrGenerationFailure)
	assert.Zero(t, gen.callCount())
}

func TestSubmitTurn_BlankReplyIsGenerationFailure(t *testing.T) {
	ctx := context.Background()
	reply := "R1"
	gen := agent.GeneratorFunc(func(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
		return memory.Assistant(reply), nil
	})
	m := newManager(gen)

	_, err := m.SubmitTurn(ctx, "s", []memory.Message{memory.User("hi")})
	require.NoError(t, err)
	before := history(t, m, "s")

	for _, blank := range []string{"", " \n\t"} {
		reply = blank
		_, err = m.SubmitTurn(ctx, "s", []memory.Message{memory.User("again")})
		require.ErrorIs(t, err, agent.ErrGenerationFailure)
		assert.ErrorIs(t, err, agent.ErrEmptyReply)
		assert.Equal(t, before, history(t, m, "s"))
	}

	// The stored history can still be resubmitted as a snapshot.
	reply = "R2"
	_, err = m.SubmitTurn(ctx, "copy", before[1:])
	require.NoError(t, err)

	reply = ""
	_, err = m.SubmitTurn(ctx, "other", []memory.Message{memory.User("hi")})
	require.ErrorIs(t, err, agent.ErrGenerationFailure)
	_, ok, err := m.History(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitTurn_ConcurrentSameIDSerialises(t *testing.T) {
	const n = 20
	gen := &fakeGen{}
	m := newManager(gen)

	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			_, err := m.SubmitTurn(context.Background(), "shared", []memory.Message{memory.User(fmt.Sprintf("q%d", i))})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	msgs := history(t, m, "shared")
	require.Len(t, msgs, 1+2*n)
	assert.Equal(t, memory.RoleSystem, msgs[0].Role)
	for i := 1; i < len(msgs); i += 2 {
		assert.Equal(t, memory.RoleUser, msgs[i].Role, "index %d", i)
		assert.Equal(t, memory.RoleAssistant, msgs[i+1].Role, "index %d", i+1)
	}
	// Each call saw the full history of every turn before it.
	for i, call := range gen.calls {
		assert.Len(t, call, 1+2*i+1)
	}
}

func TestSubmitTurn_ConcurrentDistinctIDs(t *testing.T) {
	const n = 16
	m := newManager(&fakeGen{})

	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		wg.Go(func() {
			id := fmt.Sprintf("conv-%d", i)
			for j := 0; j < 3; j++ {
				_, err := m.SubmitTurn(context.Background(), id, []memory.Message{memory.User(id)})
				assert.NoError(t, err)
			}
		})
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		id := fmt.Sprintf("conv-%d", i)
		msgs := history(t, m, id)
		require.Len(t, msgs, 1+2*3, id)
		for _, msg := range msgs {
			if msg.Role == memory.RoleUser {
				assert.Equal(t, id, msg.Content)
			}
		}
	}
}

func TestNew_Defaults(t *testing.T) {
	m := agent.New("CodeAssistant", &fakeGen{})
	assert.Equal(t, "CodeAssistant", m.Name())
	assert.Equal(t, agent.DefaultSystemInstruction, m.SystemInstruction())
}
