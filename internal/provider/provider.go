// Package provider adapts model backends to agent.Generator.
package provider

import (
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/petasbytes/coder-agent/agent"
)

const (
	NameAnthropic = "anthropic"
	NameOllama    = "ollama"
)

// Config selects and parameterises a backend.
type Config struct {
	Name      string
	Model     string
	MaxTokens int
	// BaseURL overrides the backend endpoint; empty uses the backend default.
	BaseURL string
	// HTTPClient is optional and mainly useful for tests.
	HTTPClient *http.Client
}

// New returns the generator named by cfg.Name.
func New(cfg Config) (agent.Generator, error) {
	switch cfg.Name {
	case NameAnthropic, "":
		var opts []option.RequestOption
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
		}
		return NewAnthropic(NewAnthropicClient(opts...), anthropic.Model(cfg.Model), int64(cfg.MaxTokens)), nil
	case NameOllama:
		client, err := NewOllamaClient(cfg.BaseURL, cfg.HTTPClient)
		if err != nil {
			return nil, fmt.Errorf("ollama base url %q: %w", cfg.BaseURL, err)
		}
		var opts map[string]any
		if cfg.MaxTokens > 0 {
			opts = map[string]any{"num_predict": cfg.MaxTokens}
		}
		return NewOllama(client, cfg.Model, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %q or %q)", cfg.Name, NameAnthropic, NameOllama)
	}
}
