// Package gemini provides the fallback expert capability backed by the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/ports"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Capability is a thin wrapper around the official genai client.
// Rate limiting and logging are applied with expert middleware.
type Capability struct {
	cli   *genai.Client
	model string
}

var _ ports.Capability = (*Capability)(nil)

// Config selects the model and credentials. BaseURL overrides the API endpoint.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New creates a Capability. With an empty APIKey the genai client reads GEMINI_API_KEY.
func New(ctx context.Context, cfg Config) (*Capability, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Capability{cli: cli, model: cfg.Model}, nil
}

func (c *Capability) Name() string { return "gemini:" + c.model }

// Execute asks for application/json and returns the model's object.
func (c *Capability) Execute(ctx context.Context, system, prompt string, shape ports.Shape) (json.RawMessage, error) {
	resp, err := c.cli.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", shape.Name, err)
	}
	text := resp.Text()
	if text == "" {
		return nil, ErrEmptyResponse
	}

	raw, err := expert.ExtractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("gemini %s: %w", shape.Name, err)
	}
	return raw, nil
}
