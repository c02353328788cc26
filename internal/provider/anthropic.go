package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/petasbytes/coder-agent/memory"
)

// NewAnthropicClient returns a client using API key from the env unless opts override it.
func NewAnthropicClient(opts ...option.RequestOption) *anthropic.Client {
	c := anthropic.NewClient(opts...)
	return &c
}

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const APIVersion = "2023-06-01"

// DefaultMaxTokens caps reply length when the caller sets no limit.
const DefaultMaxTokens = 1024

// ErrNoMessages is returned when a sequence holds only system messages;
// the Messages API requires at least one user or assistant turn.
var ErrNoMessages = errors.New("anthropic: no user or assistant messages to send")

// Anthropic generates replies through the Messages API.
type Anthropic struct {
	Client    *anthropic.Client
	Model     anthropic.Model
	MaxTokens int64
}

// NewAnthropic fills in DefaultModel and DefaultMaxTokens for zero values.
func NewAnthropic(client *anthropic.Client, model anthropic.Model, maxTokens int64) *Anthropic {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Anthropic{Client: client, Model: model, MaxTokens: maxTokens}
}

// Generate sends msgs as one request. System messages are lifted into the
// request's system prompt in order; the API has no system role in Messages.
func (a *Anthropic) Generate(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
	params := a.params(msgs)
	if len(params.Messages) == 0 {
		return memory.Message{}, ErrNoMessages
	}
	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		return memory.Message{}, err
	}
	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	return memory.Assistant(strings.Join(parts, "\n")), nil
}

func (a *Anthropic) params(msgs []memory.Message) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
		Messages:  make([]anthropic.MessageParam, 0, len(msgs)),
	}
	for _, m := range msgs {
		switch m.Role {
		case memory.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
		case memory.RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case memory.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return params
}
