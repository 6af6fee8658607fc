// Package gate implements the final gate: the loop-prevention policy that turns a
// completed attempt into Terminal, AwaitingUser or Retry.
//
// Rules are applied in fixed priority order and the first match wins. Rules 2 and 3
// bound the number of retries and forbid retries that reproduce the previous decision,
// so termination never depends on model behavior.
package gate

import (
	"fmt"

	"github.com/aretw0/blueprint/pkg/domain"
)

const (
	// MaxRevisions caps the number of Retry cycles per session.
	MaxRevisions = 2
	// AcceptThreshold is the confidence at or above which a result is accepted.
	AcceptThreshold = 0.7
	// AssumptionsThreshold is the confidence at or above which a result is accepted
	// with its assumptions documented.
	AssumptionsThreshold = 0.5
)

// Agent is the change-log agent name used by the gate.
const Agent = "gate"

// Policy holds the gate thresholds.
type Policy struct {
	MaxRevisions         int
	AcceptThreshold      float64
	AssumptionsThreshold float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxRevisions:         MaxRevisions,
		AcceptThreshold:      AcceptThreshold,
		AssumptionsThreshold: AssumptionsThreshold,
	}
}

// Decide applies the default policy.
func Decide(s *domain.Session) (*domain.Session, domain.Decision) {
	return DefaultPolicy().Decide(s)
}

// Decide evaluates the rules against a completed attempt. The input session is never
// mutated; the returned session is a copy carrying the rule's effects and the decision.
func (p Policy) Decide(s *domain.Session) (*domain.Session, domain.Decision) {
	out := s.Clone()
	d := p.evaluate(out)
	out.LastDecision = &d
	return out, d
}

func (p Policy) evaluate(s *domain.Session) domain.Decision {
	d := domain.Decision{Revision: s.RevisionCount}

	// 1. No merged result.
	if s.Blueprint == nil {
		err := &domain.InternalInvariantError{Reason: "gate invoked without a merged result"}
		d.Outcome = domain.GateTerminal
		d.Reason = domain.GateReasonNoResult
		d.Err = err.Error()
		return d
	}

	pattern := s.Blueprint.RecommendedPattern
	d.Pattern = pattern
	d.Confidence = s.Blueprint.Confidence

	switch {
	// 2. Retry budget exhausted.
	case s.RevisionCount >= p.MaxRevisions:
		d.Outcome, d.Reason = domain.GateTerminal, domain.GateReasonBestEffort

	// 3. Same decision as the previous attempt: no structural improvement is possible
	// without new information.
	case domain.SamePattern(pattern, s.LastPattern):
		d.Outcome, d.Reason = domain.GateTerminal, domain.GateReasonNoImprovement

	// 4. Good enough.
	case d.Confidence >= p.AcceptThreshold:
		d.Outcome, d.Reason = domain.GateTerminal, domain.GateReasonAccept

	// 5. Medium confidence is resolved by documenting assumptions.
	case d.Confidence >= p.AssumptionsThreshold:
		d.Outcome, d.Reason = domain.GateTerminal, domain.GateReasonWithAssumptions

	// 6. Needs facts only the user can provide. Never touches the revision counter.
	case s.LowConfidenceReason == domain.ReasonMissingInfo:
		d.Outcome, d.Reason = domain.GateAwaitingUser, domain.GateReasonNeedsInfo
		s.AwaitingUser = true
		if s.Critique != nil && len(s.Critique.Questions) > 0 {
			s.OpenQuestions = append([]domain.Question(nil), s.Critique.Questions...)
		}
		s.AppendChange(Agent, fmt.Sprintf("awaiting user: %d open questions", len(s.OpenQuestions)))

	// 7. Retry with materially different input.
	default:
		d.Outcome, d.Reason = domain.GateRetry, domain.GateReasonRetry
		s.RevisionCount++
		s.LastPattern = pattern
		s.AppendChange(Agent, fmt.Sprintf("retry %d: confidence %.2f for %s (%s)",
			s.RevisionCount, d.Confidence, pattern, reasonOrUnknown(s.LowConfidenceReason)))
		d.Revision = s.RevisionCount
	}
	return d
}

func reasonOrUnknown(r domain.LowConfidenceReason) string {
	if r == domain.ReasonNone {
		return "unspecified"
	}
	return string(r)
}
