package runtime

import (
	"context"
	"time"

	"github.com/aretw0/blueprint/pkg/domain"
)

func (e *Engine) emitPhaseEnter(ctx context.Context, s *domain.Session, phase domain.Phase) {
	if e.hooks.OnPhaseEnter == nil {
		return
	}
	e.hooks.OnPhaseEnter(ctx, &domain.PhaseEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPhaseEnter, SessionID: s.ID},
		Phase:     phase,
		Revision:  s.RevisionCount,
	})
}

func (e *Engine) emitPhaseLeave(ctx context.Context, s *domain.Session, phase domain.Phase, took time.Duration, err error) {
	if e.hooks.OnPhaseLeave == nil {
		return
	}
	e.hooks.OnPhaseLeave(ctx, &domain.PhaseEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPhaseLeave, SessionID: s.ID},
		Phase:     phase,
		Revision:  s.RevisionCount,
		Duration:  took,
		Err:       err,
	})
}

func (e *Engine) emitGateDecision(ctx context.Context, sessionID string, d domain.Decision) {
	if e.hooks.OnGateDecision == nil {
		return
	}
	e.hooks.OnGateDecision(ctx, &domain.GateEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGateDecision, SessionID: sessionID},
		Decision:  d,
	})
}
