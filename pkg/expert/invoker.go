package expert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/blueprint/internal/logging"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/ports"
)

// Invoker executes roles against their bound capabilities.
type Invoker struct {
	primary   ports.Capability
	secondary ports.Capability
	fallback  ports.Capability
	bindings  map[Role]Binding
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithSecondary sets the capability used by secondary roles before falling back.
// Defaults to the fallback capability.
func WithSecondary(c ports.Capability) Option {
	return func(inv *Invoker) { inv.secondary = c }
}

// WithBindings overrides the role bindings. Roles missing from the map are secondary.
func WithBindings(b map[Role]Binding) Option {
	return func(inv *Invoker) { inv.bindings = b }
}

// WithLogger sets the logger used when a call falls back to the secondary.
func WithLogger(l *slog.Logger) Option {
	return func(inv *Invoker) { inv.logger = l }
}

// WithHooks registers callbacks fired around every capability call.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(inv *Invoker) { inv.hooks = h }
}

// NewInvoker creates an invoker with a designated primary and a single fallback capability.
func NewInvoker(primary, fallback ports.Capability, opts ...Option) (*Invoker, error) {
	if primary == nil {
		return nil, domain.NewConfigurationError("primary capability is required")
	}
	if fallback == nil {
		return nil, domain.NewConfigurationError("fallback capability is required")
	}
	inv := &Invoker{
		primary:  primary,
		fallback: fallback,
		bindings: DefaultBindings(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	if inv.secondary == nil {
		inv.secondary = inv.fallback
	}
	return inv, nil
}

// IsHard reports whether the role is a hard dependency (bound to the primary capability).
func (inv *Invoker) IsHard(role Role) bool {
	return inv.bindings[role] == BindPrimary
}

type validator[T any] interface {
	*T
	Validate() error
}

// Call invokes a role and returns its decoded, validated output.
// Every error returned is a *domain.CapabilityError or a *domain.ConfigurationError.
func Call[T any, P validator[T]](ctx context.Context, inv *Invoker, role Role, input any) (*T, error) {
	spec, ok := specs[role]
	if !ok {
		return nil, domain.NewConfigurationError("unknown expert role %q", role)
	}
	var result *T
	err := inv.invoke(ctx, spec, input, func(raw json.RawMessage) error {
		v := new(T)
		if err := Decode(raw, spec.Required, v); err != nil {
			return err
		}
		if err := P(v).Validate(); err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (inv *Invoker) invoke(ctx context.Context, spec Spec, input any, decode func(json.RawMessage) error) error {
	prompt, err := BuildPrompt(spec, input)
	if err != nil {
		return &domain.CapabilityError{Role: string(spec.Role), Capability: "none", Cause: err}
	}

	hard := inv.IsHard(spec.Role)
	first := inv.secondary
	if hard {
		first = inv.primary
	}

	err = inv.attempt(ctx, spec, first, prompt, decode, false)
	if err == nil || hard || ctx.Err() != nil {
		return err
	}

	inv.logger.WarnContext(ctx, "expert failed, using fallback",
		"role", spec.Role, "capability", first.Name(), "fallback", inv.fallback.Name(), "error", err)
	return inv.attempt(ctx, spec, inv.fallback, prompt, decode, true)
}

func (inv *Invoker) attempt(ctx context.Context, spec Spec, c ports.Capability, prompt string, decode func(json.RawMessage) error, fallback bool) error {
	ev := &domain.ExpertEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventExpertCall,
			SessionID: SessionFrom(ctx),
		},
		Role:       string(spec.Role),
		Capability: c.Name(),
		Fallback:   fallback,
	}
	if inv.hooks.OnExpertCall != nil {
		inv.hooks.OnExpertCall(ctx, ev)
	}

	start := time.Now()
	err := inv.execute(ctx, spec, c, prompt, decode)

	if inv.hooks.OnExpertReturn != nil {
		ret := *ev
		ret.Type = domain.EventExpertReturn
		ret.Timestamp = time.Now()
		ret.Duration = time.Since(start)
		ret.Err = err
		inv.hooks.OnExpertReturn(ctx, &ret)
	}
	return err
}

func (inv *Invoker) execute(ctx context.Context, spec Spec, c ports.Capability, prompt string, decode func(json.RawMessage) error) error {
	raw, err := c.Execute(ctx, spec.System, prompt, spec.Shape)
	if err != nil {
		return &domain.CapabilityError{Role: string(spec.Role), Capability: c.Name(), Cause: err}
	}
	if err := decode(raw); err != nil {
		return &domain.CapabilityError{Role: string(spec.Role), Capability: c.Name(), Shape: true, Cause: err}
	}
	return nil
}

// BuildPrompt renders the user prompt for a role from its structured input.
func BuildPrompt(spec Spec, input any) (string, error) {
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding %s input: %w", spec.Role, err)
	}
	return fmt.Sprintf("Input:\n%s\n\nRespond with one JSON object shaped like this example:\n%s", data, spec.Shape.Example), nil
}

type sessionKey struct{}

// ContextWithSession tags ctx with a session ID for expert events.
func ContextWithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session ID tagged on ctx, if any.
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
