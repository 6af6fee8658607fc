// Package scripted provides a deterministic, offline model capability.
//
// It answers every shape with a canned payload, can be scripted per shape with a queue of
// payloads and injected failures, and records how often each shape was requested. It backs
// the --offline CLI mode and every orchestration test.
package scripted

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/blueprint/pkg/ports"
)

// ErrScripted is the error returned by injected failures.
var ErrScripted = errors.New("scripted failure")

// Capability implements ports.Capability with canned payloads.
// Safe for concurrent use.
type Capability struct {
	name string

	mu       sync.Mutex
	queues   map[string][]json.RawMessage
	failures map[string]int
	failAll  error
	calls    map[string]int
	hook     func(ctx context.Context, shape string)
}

// New creates a scripted capability that answers with Defaults.
func New(name string) *Capability {
	return &Capability{
		name:     name,
		queues:   make(map[string][]json.RawMessage),
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (c *Capability) Name() string { return c.name }

// On queues payloads for a shape. Payloads are consumed in order and the last one repeats.
// A payload may be a json.RawMessage, a string of JSON or any value that marshals to an object.
func (c *Capability) On(shape string, payloads ...any) *Capability {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range payloads {
		c.queues[shape] = append(c.queues[shape], toRaw(p))
	}
	return c
}

// FailNext makes the next n requests for the shape fail with ErrScripted.
func (c *Capability) FailNext(shape string, n int) *Capability {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[shape] += n
	return c
}

// FailAlways makes every request fail with err (ErrScripted when nil).
func (c *Capability) FailAlways(err error) *Capability {
	if err == nil {
		err = ErrScripted
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAll = err
	return c
}

// OnCall registers a callback invoked on every request before it is answered.
func (c *Capability) OnCall(fn func(ctx context.Context, shape string)) *Capability {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = fn
	return c
}

// Calls returns how many requests were made for the shape.
func (c *Capability) Calls(shape string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[shape]
}

// TotalCalls returns the number of requests across all shapes.
func (c *Capability) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *Capability) Execute(ctx context.Context, system, prompt string, shape ports.Shape) (json.RawMessage, error) {
	c.mu.Lock()
	c.calls[shape.Name]++
	hook := c.hook
	c.mu.Unlock()

	if hook != nil {
		hook(ctx, shape.Name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failAll != nil {
		return nil, c.failAll
	}
	if c.failures[shape.Name] > 0 {
		c.failures[shape.Name]--
		return nil, fmt.Errorf("%w: %s", ErrScripted, shape.Name)
	}
	if q := c.queues[shape.Name]; len(q) > 0 {
		out := q[0]
		if len(q) > 1 {
			c.queues[shape.Name] = q[1:]
		}
		return out, nil
	}
	if def, ok := Defaults[shape.Name]; ok {
		return json.RawMessage(def), nil
	}
	return nil, fmt.Errorf("no scripted payload for shape %q", shape.Name)
}

func toRaw(p any) json.RawMessage {
	switch v := p.(type) {
	case json.RawMessage:
		return v
	case string:
		return json.RawMessage(v)
	case []byte:
		return json.RawMessage(v)
	}
	data, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("scripted payload does not marshal: %v", err))
	}
	return data
}
