package ports

import (
	"context"
	"encoding/json"
)

// Shape describes the structured output a capability must return.
type Shape struct {
	// Name identifies the shape (e.g. "expert_output", "critique").
	Name string
	// Example is a JSON skeleton of the expected object, embedded in prompts.
	Example string
}

// Capability executes one model request and returns a JSON object.
// It fails on transport or auth errors and when the provider returns no usable object.
type Capability interface {
	Name() string
	Execute(ctx context.Context, system, prompt string, shape Shape) (json.RawMessage, error)
}

// CapabilityFunc adapts a function to the Capability interface.
type CapabilityFunc struct {
	ID string
	Fn func(ctx context.Context, system, prompt string, shape Shape) (json.RawMessage, error)
}

func (f CapabilityFunc) Name() string { return f.ID }

func (f CapabilityFunc) Execute(ctx context.Context, system, prompt string, shape Shape) (json.RawMessage, error) {
	return f.Fn(ctx, system, prompt, shape)
}
