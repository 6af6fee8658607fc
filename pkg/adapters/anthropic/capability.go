// Package anthropic provides the primary expert capability backed by Anthropic models
// through langchaingo.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/ports"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// DefaultMaxTokens caps the response size; a full blueprint fits comfortably.
const DefaultMaxTokens = 8192

// ErrEmptyResponse is returned when the provider answers with no choices.
var ErrEmptyResponse = errors.New("anthropic: empty response")

// Capability implements ports.Capability over a langchaingo model.
type Capability struct {
	model     llms.Model
	name      string
	maxTokens int
}

var _ ports.Capability = (*Capability)(nil)

// Option configures a Capability.
type Option func(*config)

type config struct {
	model     string
	token     string
	maxTokens int
}

// WithModel selects the Anthropic model.
func WithModel(model string) Option {
	return func(c *config) {
		if model != "" {
			c.model = model
		}
	}
}

// WithAPIKey sets the API key. Without it langchaingo reads ANTHROPIC_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *config) { c.token = key }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// New builds a Capability talking to the Anthropic API.
func New(opts ...Option) (*Capability, error) {
	cfg := config{model: DefaultModel, maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []anthropic.Option{anthropic.WithModel(cfg.model)}
	if cfg.token != "" {
		clientOpts = append(clientOpts, anthropic.WithToken(cfg.token))
	}
	llm, err := anthropic.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating anthropic client: %w", err)
	}
	return NewFromModel(llm, "anthropic:"+cfg.model, cfg.maxTokens), nil
}

// NewFromModel wraps any langchaingo model. Tests use it with a fake.
func NewFromModel(model llms.Model, name string, maxTokens int) *Capability {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Capability{model: model, name: name, maxTokens: maxTokens}
}

func (c *Capability) Name() string { return c.name }

// Execute sends the system instruction and prompt and returns the JSON object found in the reply.
func (c *Capability) Execute(ctx context.Context, system, prompt string, shape ports.Shape) (json.RawMessage, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithMaxTokens(c.maxTokens),
		llms.WithTemperature(0.2),
	)
	if err != nil {
		return nil, fmt.Errorf("anthropic %s: %w", shape.Name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	raw, err := expert.ExtractJSON(resp.Choices[0].Content)
	if err != nil {
		return nil, fmt.Errorf("anthropic %s: %w", shape.Name, err)
	}
	return raw, nil
}
