package blueprint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/blueprint/internal/logging"
	"github.com/aretw0/blueprint/internal/presentation/reply"
	"github.com/aretw0/blueprint/internal/runtime"
	"github.com/aretw0/blueprint/internal/sanitizer"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/gate"
	"github.com/aretw0/blueprint/pkg/knowledge"
	"github.com/aretw0/blueprint/pkg/ports"
	"github.com/aretw0/blueprint/pkg/scoring"
	"github.com/google/uuid"
)

// Version is overridden at build time with -ldflags "-X github.com/aretw0/blueprint.Version=...".
var Version = "0.1.0-dev"

// ErrEmptyMessage is returned by StartSession for a blank project description.
var ErrEmptyMessage = errors.New("initial message is empty")

// Engine is the high-level entry point for the Blueprint library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	scorer  runtime.Scorer
	kb      ports.KnowledgeBase

	primary   ports.Capability
	fallback  ports.Capability
	secondary ports.Capability
	bindings  map[expert.Role]expert.Binding
	policy    *gate.Policy
	cacheSize int
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCapabilities sets the primary model capability and its single fallback. Required.
func WithCapabilities(primary, fallback ports.Capability) Option {
	return func(e *Engine) {
		e.primary = primary
		e.fallback = fallback
	}
}

// WithSecondary routes secondary roles to c before they fall back.
func WithSecondary(c ports.Capability) Option {
	return func(e *Engine) {
		e.secondary = c
	}
}

// WithBindings overrides which roles are hard dependencies on the primary.
func WithBindings(b map[expert.Role]expert.Binding) Option {
	return func(e *Engine) {
		e.bindings = b
	}
}

// WithKnowledgeBase replaces the built-in pattern table.
func WithKnowledgeBase(kb ports.KnowledgeBase) Option {
	return func(e *Engine) {
		e.kb = kb
	}
}

// WithCacheSize memoizes shortlists for up to n distinct weight/constraint sets. Zero disables it.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithGatePolicy overrides the final gate thresholds.
func WithGatePolicy(p gate.Policy) Option {
	return func(e *Engine) {
		e.policy = &p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New initializes an Engine. A malformed knowledge base or missing capability is a
// ConfigurationError.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.kb == nil {
		eng.kb = knowledge.Builtin()
	}
	if err := knowledge.Validate(eng.kb.LookupPatterns()); err != nil {
		return nil, err
	}

	invOpts := []expert.Option{
		expert.WithLogger(eng.logger),
		expert.WithHooks(eng.hooks),
	}
	if eng.secondary != nil {
		invOpts = append(invOpts, expert.WithSecondary(eng.secondary))
	}
	if eng.bindings != nil {
		invOpts = append(invOpts, expert.WithBindings(eng.bindings))
	}
	inv, err := expert.NewInvoker(eng.primary, eng.fallback, invOpts...)
	if err != nil {
		return nil, err
	}

	base := scoring.New(eng.kb)
	eng.scorer = base
	if eng.cacheSize > 0 {
		cached, err := scoring.NewCached(base, eng.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating scoring cache: %w", err)
		}
		eng.scorer = cached
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	}
	if eng.policy != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithGatePolicy(*eng.policy))
	}
	eng.runtime = runtime.NewEngine(inv, eng.scorer, runtimeOpts...)

	return eng, nil
}

// Begin returns an empty session. An empty id gets a random UUID.
func (e *Engine) Begin(id string) *domain.Session {
	if id == "" {
		id = uuid.NewString()
	}
	return domain.NewSession(id, time.Now().UTC())
}

// StartSession creates a session holding the initial project description.
// No expert runs until ContinueSession.
func (e *Engine) StartSession(ctx context.Context, initialMessage string) (*domain.Session, error) {
	msg, err := sanitizer.Input(initialMessage)
	if err != nil {
		return nil, err
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	s := e.Begin("")
	s.AddMessage(domain.RoleUser, msg, domain.PhaseIntake)
	e.logger.InfoContext(ctx, "session started", "session_id", s.ID)
	return s, nil
}

// ContinueSession runs one turn. It returns the updated session, the outcome and the
// reply to show the user. On OutcomeError the session is the last committed one, the
// reply is a fixed apology and err carries the cause for logging. Input rejected by the
// sanitizer returns s unchanged with OutcomeError.
func (e *Engine) ContinueSession(ctx context.Context, s *domain.Session, userMessage string) (*domain.Session, domain.Outcome, string, error) {
	if s == nil {
		err := &domain.InternalInvariantError{Reason: "nil session"}
		return nil, domain.OutcomeError, reply.Apology, err
	}
	userMessage, err := sanitizer.Input(userMessage)
	if err != nil {
		return s, domain.OutcomeError, reply.Apology, err
	}

	res := e.runtime.Run(ctx, s, userMessage)
	text := reply.Compose(res.Session, res.Outcome)

	next := res.Session
	if res.Outcome != domain.OutcomeError {
		next.AddMessage(domain.RoleAssistant, text, domain.PhaseGate)
	}
	return next, res.Outcome, text, res.Err
}

// ResetSession returns a copy of s ready to start over. See domain.Session.Reset.
func (e *Engine) ResetSession(s *domain.Session, keepRequirements bool) *domain.Session {
	return s.Reset(keepRequirements)
}

// Shortlist scores the knowledge base for an explicit ranking and constraints.
func (e *Engine) Shortlist(ranking []domain.Criterion, constraints []domain.Constraint) (domain.Shortlist, error) {
	return e.scorer.Shortlist(domain.RankWeights(ranking), constraints)
}

// Patterns returns the knowledge base in declaration order.
func (e *Engine) Patterns() []domain.PatternCandidate {
	return e.kb.LookupPatterns()
}
