package provider

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/petasbytes/coder-agent/memory"
)

// DefaultOllamaURL is the local Ollama server address.
const DefaultOllamaURL = "http://localhost:11434"

const DefaultOllamaModel = "llama3"

// Ollama generates replies through a local Ollama server's chat endpoint.
type Ollama struct {
	Client *api.Client
	Model  string
	// Options are passed through as Ollama model options (temperature, num_predict, ...).
	Options map[string]any
}

// NewOllamaClient builds an api client for baseURL. A nil httpClient uses http.DefaultClient.
func NewOllamaClient(baseURL string, httpClient *http.Client) (*api.Client, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return api.NewClient(u, httpClient), nil
}

// NewOllama returns a generator for model, defaulting to DefaultOllamaModel.
func NewOllama(client *api.Client, model string, options map[string]any) *Ollama {
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{Client: client, Model: model, Options: options}
}

// Generate performs one non-streaming chat request. Roles pass through verbatim.
func (o *Ollama) Generate(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
	stream := false
	req := &api.ChatRequest{
		Model:    o.Model,
		Messages: make([]api.Message, 0, len(msgs)),
		Stream:   &stream,
		Options:  o.Options,
	}
	for _, m := range msgs {
		req.Messages = append(req.Messages, api.Message{Role: string(m.Role), Content: m.Content})
	}

	var reply strings.Builder
	err := o.Client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return memory.Message{}, err
	}
	return memory.Assistant(reply.String()), nil
}
