package runtime

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/scoring"
)

// shortlistSize is the number of top candidates shown to the experts.
const shortlistSize = 3

type projectBrief struct {
	ProjectName  string              `json:"project_name,omitempty"`
	Summary      string              `json:"summary,omitempty"`
	Requirements []string            `json:"requirements"`
	Constraints  []domain.Constraint `json:"constraints"`
	Conflicts    []domain.Conflict   `json:"conflicts,omitempty"`
	Ranking      []domain.Criterion  `json:"ranking,omitempty"`
}

func brief(s *domain.Session) projectBrief {
	return projectBrief{
		ProjectName:  s.ProjectName,
		Summary:      s.Summary,
		Requirements: nonNil(s.Requirements),
		Constraints:  nonNil(s.Constraints),
		Conflicts:    s.Conflicts,
		Ranking:      s.Ranking,
	}
}

type intakeInput struct {
	Messages          []string `json:"messages"`
	KnownRequirements []string `json:"known_requirements,omitempty"`
}

func (e *Engine) intake(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	out, err := expert.Call[domain.IntakeOutput](ctx, e.invoker, expert.RoleIntake, intakeInput{
		Messages:          nonNil(s.UserMessages()),
		KnownRequirements: s.Requirements,
	})
	if err != nil {
		return e.absorb(ctx, s, expert.RoleIntake, err)
	}

	if s.ProjectName == "" {
		s.ProjectName = out.ProjectName
	}
	if out.Summary != "" {
		s.Summary = out.Summary
	}
	added := appendUnique(&s.Requirements, out.Requirements...)
	s.Constraints = append(s.Constraints, out.Constraints...)
	s.OpenQuestions = append(s.OpenQuestions, questions(out.Questions)...)
	s.AppendChange(string(expert.RoleIntake), fmt.Sprintf("captured %d requirements and %d constraints", added, len(out.Constraints)))
	return s, nil
}

func (e *Engine) priority(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	out, err := expert.Call[domain.PriorityOutput](ctx, e.invoker, expert.RolePriority, brief(s))
	if err != nil {
		return e.absorb(ctx, s, expert.RolePriority, err)
	}

	if len(out.Ranking) > 0 {
		s.Ranking = out.Ranking
	}
	s.Profile = out.Profile
	s.AppendChange(string(expert.RolePriority), fmt.Sprintf("ranked criteria %v (profile %q)", s.Ranking, s.Profile))
	return s, nil
}

func (e *Engine) conflict(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	out, err := expert.Call[domain.ConflictOutput](ctx, e.invoker, expert.RoleConflict, brief(s))
	if err != nil {
		return e.absorb(ctx, s, expert.RoleConflict, err)
	}

	s.Conflicts = out.Conflicts
	s.AppendChange(string(expert.RoleConflict), fmt.Sprintf("found %d conflicts, coherence %.2f", len(out.Conflicts), out.Coherence))
	return s, nil
}

// deepDive never suspends the workflow; its questions are surfaced with the result.
func (e *Engine) deepDive(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	out, err := expert.Call[domain.DeepDiveOutput](ctx, e.invoker, expert.RoleDeepDive, brief(s))
	if err != nil {
		return e.absorb(ctx, s, expert.RoleDeepDive, err)
	}

	added := appendUnique(&s.Requirements, out.Requirements...)
	s.Constraints = append(s.Constraints, out.Constraints...)
	s.OpenQuestions = append(s.OpenQuestions, questions(out.Questions)...)
	s.AppendChange(string(expert.RoleDeepDive), fmt.Sprintf("added %d requirements, ready=%t", added, out.Ready))
	return s, nil
}

type previousAttempt struct {
	Pattern             string                     `json:"pattern"`
	Confidence          float64                    `json:"confidence"`
	LowConfidenceReason domain.LowConfidenceReason `json:"low_confidence_reason,omitempty"`
	Issues              []string                   `json:"issues,omitempty"`
	Fixes               []string                   `json:"fixes,omitempty"`
}

type generateInput struct {
	projectBrief
	Messages  []string         `json:"messages"`
	Shortlist domain.Shortlist `json:"shortlist"`
	Previous  *previousAttempt `json:"previous_attempt,omitempty"`
}

func (e *Engine) generate(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	sl, err := e.scorer.Shortlist(scoring.WeightsFor(s), s.Constraints)
	if err != nil {
		return nil, err
	}
	s.Shortlist = sl

	in := generateInput{
		projectBrief: brief(s),
		Messages:     nonNil(s.UserMessages()),
		Shortlist:    nonNil(sl.Top(shortlistSize)),
		Previous:     previous(s),
	}
	out, err := expert.Call[domain.ExpertOutput](ctx, e.invoker, expert.RoleGenerate, in)
	if err != nil {
		return e.absorb(ctx, s, expert.RoleGenerate, err)
	}

	s.Generated = out
	// Downstream slots belong to the previous attempt.
	s.Critique, s.CostOps, s.Blueprint = nil, nil, nil
	s.AppendChange(string(expert.RoleGenerate), fmt.Sprintf("proposed %s at confidence %.2f", out.RecommendedPattern, out.Confidence))
	return s, nil
}

// previous describes the last attempt so a retry runs on materially different input.
func previous(s *domain.Session) *previousAttempt {
	if s.LastPattern == "" && s.Critique == nil && s.Blueprint == nil {
		return nil
	}
	p := &previousAttempt{
		Pattern:             s.LastPattern,
		LowConfidenceReason: s.LowConfidenceReason,
	}
	if s.Blueprint != nil {
		p.Confidence = s.Blueprint.Confidence
		if p.Pattern == "" {
			p.Pattern = s.Blueprint.RecommendedPattern
		}
	}
	if s.Critique != nil {
		p.Issues = s.Critique.Issues
		p.Fixes = s.Critique.Fixes
	}
	return p
}

type reviewInput struct {
	projectBrief
	Proposal  *domain.ExpertOutput `json:"proposal"`
	Shortlist domain.Shortlist     `json:"shortlist"`
}

// fanOut runs Critique and CostOps concurrently on the same proposal. Both results
// are merged into the session only after both branches settle.
func (e *Engine) fanOut(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if s.Generated == nil {
		return nil, &domain.InternalInvariantError{Reason: "critique requested without a generate output"}
	}
	in := reviewInput{projectBrief: brief(s), Proposal: s.Generated, Shortlist: nonNil(s.Shortlist.Top(shortlistSize))}

	var (
		crit            *domain.CritiqueOutput
		costs           *domain.CostOpsOutput
		critErr, cosErr error
	)
	err := expert.Parallel(ctx,
		func(ctx context.Context) error {
			start := time.Now()
			e.emitPhaseEnter(ctx, s, domain.PhaseCritique)
			crit, critErr = expert.Call[domain.CritiqueOutput](ctx, e.invoker, expert.RoleCritique, in)
			e.emitPhaseLeave(ctx, s, domain.PhaseCritique, time.Since(start), critErr)
			return e.hardOnly(ctx, expert.RoleCritique, critErr)
		},
		func(ctx context.Context) error {
			start := time.Now()
			e.emitPhaseEnter(ctx, s, domain.PhaseCostOps)
			costs, cosErr = expert.Call[domain.CostOpsOutput](ctx, e.invoker, expert.RoleCostOps, in)
			e.emitPhaseLeave(ctx, s, domain.PhaseCostOps, time.Since(start), cosErr)
			return e.hardOnly(ctx, expert.RoleCostOps, cosErr)
		},
	)
	if err != nil {
		return nil, err
	}

	s.Critique = crit
	s.CostOps = costs
	s.LowConfidenceReason = domain.ReasonNone
	if crit != nil {
		s.LowConfidenceReason = crit.LowConfidenceReason
		s.AppendChange(string(expert.RoleCritique), fmt.Sprintf("%d issues, confidence %.2f", len(crit.Issues), crit.Confidence))
	} else {
		e.noteSkipped(ctx, s, expert.RoleCritique, critErr)
	}
	if costs != nil {
		s.AppendChange(string(expert.RoleCostOps), fmt.Sprintf("cost %s, ops %s", costs.CostBand, costs.OpsBand))
	} else {
		e.noteSkipped(ctx, s, expert.RoleCostOps, cosErr)
	}
	return s, nil
}

type synthesisInput struct {
	projectBrief
	Proposal  *domain.ExpertOutput   `json:"proposal"`
	Critique  *domain.CritiqueOutput `json:"critique,omitempty"`
	CostOps   *domain.CostOpsOutput  `json:"cost_ops,omitempty"`
	Shortlist domain.Shortlist       `json:"shortlist"`
	Revision  int                    `json:"revision"`
}

func (e *Engine) synthesize(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	out, err := expert.Call[domain.Blueprint](ctx, e.invoker, expert.RoleSynthesize, synthesisInput{
		projectBrief: brief(s),
		Proposal:     s.Generated,
		Critique:     s.Critique,
		CostOps:      s.CostOps,
		Shortlist:    nonNil(s.Shortlist.Top(shortlistSize)),
		Revision:     s.RevisionCount,
	})
	if err != nil {
		return e.absorb(ctx, s, expert.RoleSynthesize, err)
	}

	s.Blueprint = out
	s.AppendChange(string(expert.RoleSynthesize), fmt.Sprintf("merged blueprint for %s at confidence %.2f", out.RecommendedPattern, out.Confidence))
	return s, nil
}

// absorb turns a soft-dependency failure into a committed no-op phase.
// Hard-dependency failures and cancellations are returned unchanged.
func (e *Engine) absorb(ctx context.Context, s *domain.Session, role expert.Role, err error) (*domain.Session, error) {
	if err := e.hardOnly(ctx, role, err); err != nil {
		return nil, err
	}
	e.noteSkipped(ctx, s, role, err)
	return s, nil
}

func (e *Engine) hardOnly(ctx context.Context, role expert.Role, err error) error {
	if err == nil {
		return nil
	}
	var capErr *domain.CapabilityError
	if ctx.Err() != nil || !errors.As(err, &capErr) || e.invoker.IsHard(role) {
		return err
	}
	return nil
}

func (e *Engine) noteSkipped(ctx context.Context, s *domain.Session, role expert.Role, err error) {
	e.logger.WarnContext(ctx, "soft dependency unavailable, continuing without it",
		"session_id", s.ID, "role", role, "error", err)
	s.AppendChange(string(role), "skipped: expert unavailable after fallback")
}

func failedFanOutPhase(err error) domain.Phase {
	var capErr *domain.CapabilityError
	if errors.As(err, &capErr) && capErr.Role == string(expert.RoleCostOps) {
		return domain.PhaseCostOps
	}
	return domain.PhaseCritique
}

func appendUnique(dst *[]string, items ...string) int {
	added := 0
	for _, it := range items {
		if it == "" || slices.Contains(*dst, it) {
			continue
		}
		*dst = append(*dst, it)
		added++
	}
	return added
}

func questions(qs []string) []domain.Question {
	out := make([]domain.Question, 0, len(qs))
	for _, q := range qs {
		if q != "" {
			out = append(out, domain.Question{Question: q})
		}
	}
	return out
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
