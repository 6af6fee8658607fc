package runtime

import (
	"strings"

	"github.com/aretw0/blueprint/pkg/domain"
)

// ResolveEntry picks the resumption phase from the session context alone:
//
//  1. a merged result exists and the session awaits the user: Generate
//  2. a Generate output exists: Critique
//  3. requirements exist: Generate
//  4. otherwise: Intake
func ResolveEntry(s *domain.Session) domain.Phase {
	switch {
	case s.Suspended():
		return domain.PhaseGenerate
	case s.Generated != nil:
		return domain.PhaseCritique
	case len(s.Requirements) > 0:
		return domain.PhaseGenerate
	}
	return domain.PhaseIntake
}

// prepare stages the entry mutations on the working copy.
func prepare(s *domain.Session, entry domain.Phase, userMessage string) {
	msg := strings.TrimSpace(userMessage)
	if msg != "" {
		s.AddMessage(domain.RoleUser, msg, entry)
	}

	if s.Suspended() && msg != "" {
		// The only place the suspended flag is cleared.
		s.AwaitingUser = false
		s.AppendChange("orchestrator", "user replied to open questions")
		s.Requirements = append(s.Requirements, answerRequirement(s.OpenQuestions, msg))
		s.OpenQuestions = nil
		return
	}

	// Intake reads the whole transcript; later entries fold the message in directly.
	if entry != domain.PhaseIntake && msg != "" {
		s.Requirements = append(s.Requirements, msg)
	}
}

func answerRequirement(questions []domain.Question, answer string) string {
	if len(questions) == 0 {
		return answer
	}
	qs := make([]string, len(questions))
	for i, q := range questions {
		qs[i] = q.Question
	}
	return "Answer to \"" + strings.Join(qs, " / ") + "\": " + answer
}
