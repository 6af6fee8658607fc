// Package runtime is the workflow orchestrator.
//
// It resolves where a session resumes from the session context alone, runs the phases
// Intake, Priority, Conflict, DeepDive, Generate, {Critique, CostOps}, Synthesize and
// consults the gate to terminate, suspend or retry. Each phase works on a copy of the
// session that is committed only when the phase succeeds.
package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/blueprint/internal/logging"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/gate"
)

// Scorer produces the shortlist for a set of weights and constraints.
type Scorer interface {
	Shortlist(weights domain.Weights, constraints []domain.Constraint) (domain.Shortlist, error)
}

// Engine is the orchestration state machine. It holds no session state.
type Engine struct {
	invoker *expert.Invoker
	scorer  Scorer
	policy  gate.Policy
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
// Hooks for Critique and CostOps may be called concurrently.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithGatePolicy overrides the gate thresholds.
func WithGatePolicy(p gate.Policy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// NewEngine creates an orchestrator.
func NewEngine(invoker *expert.Invoker, scorer Scorer, opts ...EngineOption) *Engine {
	e := &Engine{
		invoker: invoker,
		scorer:  scorer,
		policy:  gate.DefaultPolicy(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one Run.
type Result struct {
	// Session is the last committed session context.
	Session  *domain.Session
	Outcome  domain.Outcome
	Decision *domain.Decision
	// Entry is the phase the run resumed at.
	Entry domain.Phase
	// FailedPhase and Err are set when Outcome is OutcomeError.
	FailedPhase domain.Phase
	Err         error
}

type phaseFunc func(ctx context.Context, s *domain.Session) (*domain.Session, error)

// Run processes one external invocation. The input session is never mutated.
func (e *Engine) Run(ctx context.Context, in *domain.Session, userMessage string) Result {
	logger := e.logger.With("session_id", in.ID)
	ctx = expert.ContextWithSession(ctx, in.ID)

	entry := ResolveEntry(in)
	logger.InfoContext(ctx, "resuming session", "entry", entry, "revision", in.RevisionCount)

	// A suspended session only resumes on a real answer.
	if in.Suspended() && strings.TrimSpace(userMessage) == "" {
		logger.InfoContext(ctx, "blank reply while awaiting user", "open_questions", len(in.OpenQuestions))
		return Result{Entry: entry, Session: in.Clone(), Outcome: domain.OutcomeAwaitingUser, Decision: in.LastDecision}
	}

	// Entry mutations are staged and committed together with the first phase.
	committed := in.Clone()
	work := in.Clone()
	prepare(work, entry, userMessage)

	res := Result{Entry: entry}
	fail := func(phase domain.Phase, err error) Result {
		logger.ErrorContext(ctx, "attempt aborted", "phase", phase, "error", err)
		res.Session = committed
		res.Outcome = domain.OutcomeError
		res.FailedPhase = phase
		res.Err = err
		return res
	}
	step := func(phase domain.Phase, fn phaseFunc) error {
		next, err := e.runPhase(ctx, logger, phase, work, fn, phase != domain.PhaseCritique)
		if err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()
		work = next
		committed = next
		return nil
	}

	var pre []domain.Phase
	switch entry {
	case domain.PhaseIntake:
		pre = []domain.Phase{domain.PhaseIntake, domain.PhasePriority, domain.PhaseConflict, domain.PhaseDeepDive, domain.PhaseGenerate}
	case domain.PhaseGenerate:
		pre = []domain.Phase{domain.PhaseGenerate}
	}
	for _, p := range pre {
		if err := step(p, e.phase(p)); err != nil {
			return fail(p, err)
		}
	}

	maxAttempts := e.policy.MaxRevisions + 2
	for attempt := 0; ; attempt++ {
		if attempt >= maxAttempts {
			return fail(domain.PhaseGate, &domain.InternalInvariantError{Reason: "gate did not terminate"})
		}
		if err := step(domain.PhaseCritique, e.fanOut); err != nil {
			return fail(failedFanOutPhase(err), err)
		}
		if err := step(domain.PhaseSynthesize, e.synthesize); err != nil {
			return fail(domain.PhaseSynthesize, err)
		}

		var d domain.Decision
		if err := step(domain.PhaseGate, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
			next, decision := e.policy.Decide(s)
			d = decision
			return next, nil
		}); err != nil {
			return fail(domain.PhaseGate, err)
		}
		e.emitGateDecision(ctx, in.ID, d)
		logger.InfoContext(ctx, "gate decision",
			"outcome", d.Outcome, "reason", d.Reason, "confidence", d.Confidence,
			"revision", d.Revision, "pattern", d.Pattern)
		res.Decision = &d

		switch d.Outcome {
		case domain.GateTerminal:
			if d.Reason == domain.GateReasonNoResult {
				return fail(domain.PhaseGate, &domain.InternalInvariantError{Reason: d.Err})
			}
			res.Session, res.Outcome = committed, domain.OutcomeDelivered
			return res
		case domain.GateAwaitingUser:
			res.Session, res.Outcome = committed, domain.OutcomeAwaitingUser
			return res
		case domain.GateRetry:
			if err := step(domain.PhaseGenerate, e.generate); err != nil {
				return fail(domain.PhaseGenerate, err)
			}
		default:
			return fail(domain.PhaseGate, &domain.InternalInvariantError{Reason: "unrecognized gate outcome " + string(d.Outcome)})
		}
	}
}

func (e *Engine) phase(p domain.Phase) phaseFunc {
	switch p {
	case domain.PhaseIntake:
		return e.intake
	case domain.PhasePriority:
		return e.priority
	case domain.PhaseConflict:
		return e.conflict
	case domain.PhaseDeepDive:
		return e.deepDive
	}
	return e.generate
}

// runPhase runs fn on a copy of s. The fan-out emits its own per-branch events, so
// emit is false for it.
func (e *Engine) runPhase(ctx context.Context, logger *slog.Logger, phase domain.Phase, s *domain.Session, fn phaseFunc, emit bool) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	if emit {
		e.emitPhaseEnter(ctx, s, phase)
	}
	logger.DebugContext(ctx, "phase enter", "phase", phase, "revision", s.RevisionCount)

	next, err := fn(ctx, s.Clone())

	if emit {
		e.emitPhaseLeave(ctx, s, phase, time.Since(start), err)
	}
	logger.DebugContext(ctx, "phase leave", "phase", phase, "duration", time.Since(start), "error", err)
	return next, err
}
