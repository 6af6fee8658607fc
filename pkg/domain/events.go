package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseEnter   EventType = "phase_enter"
	EventPhaseLeave   EventType = "phase_leave"
	EventExpertCall   EventType = "expert_call"
	EventExpertReturn EventType = "expert_return"
	EventGateDecision EventType = "gate_decision"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// PhaseEvent represents entry into or exit from a workflow phase.
type PhaseEvent struct {
	EventBase
	Phase    Phase         `json:"phase"`
	Revision int           `json:"revision"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// ExpertEvent represents one expert invocation.
type ExpertEvent struct {
	EventBase
	Role       string        `json:"role"`
	Capability string        `json:"capability"`
	Fallback   bool          `json:"fallback,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
}

// GateEvent carries a gate decision.
type GateEvent struct {
	EventBase
	Decision Decision `json:"decision"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil fields are skipped.
type LifecycleHooks struct {
	OnPhaseEnter   func(context.Context, *PhaseEvent)
	OnPhaseLeave   func(context.Context, *PhaseEvent)
	OnExpertCall   func(context.Context, *ExpertEvent)
	OnExpertReturn func(context.Context, *ExpertEvent)
	OnGateDecision func(context.Context, *GateEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhaseEnter:   chain(h.OnPhaseEnter, other.OnPhaseEnter),
		OnPhaseLeave:   chain(h.OnPhaseLeave, other.OnPhaseLeave),
		OnExpertCall:   chain(h.OnExpertCall, other.OnExpertCall),
		OnExpertReturn: chain(h.OnExpertReturn, other.OnExpertReturn),
		OnGateDecision: chain(h.OnGateDecision, other.OnGateDecision),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
