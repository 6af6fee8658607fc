package scoring

import (
	"fmt"
	"sort"

	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/ports"
)

// Engine scores the patterns of a knowledge base.
type Engine struct {
	kb ports.KnowledgeBase
}

// New creates a scoring engine over the knowledge base.
func New(kb ports.KnowledgeBase) *Engine {
	return &Engine{kb: kb}
}

// Shortlist ranks every known pattern for the given weights and constraints.
func (e *Engine) Shortlist(weights domain.Weights, constraints []domain.Constraint) (domain.Shortlist, error) {
	return Score(e.kb.LookupPatterns(), weights, constraints)
}

// WeightsFor derives weights from the session ranking, falling back to the
// decision profile's default ranking when no explicit ranking was captured.
func WeightsFor(s *domain.Session) domain.Weights {
	ranking := s.Ranking
	if len(ranking) == 0 && s.Profile.Valid() {
		ranking = s.Profile.Ranking()
	}
	return domain.RankWeights(ranking)
}

// Score is the pure scoring function. It fails only with a *domain.ConfigurationError.
func Score(patterns []domain.PatternCandidate, weights domain.Weights, constraints []domain.Constraint) (domain.Shortlist, error) {
	if err := validate(weights, constraints); err != nil {
		return nil, err
	}

	total := weights.Total()
	out := make(domain.Shortlist, 0, len(patterns))
	for _, p := range patterns {
		sp := domain.ScoredPattern{
			Name:        p.Name,
			DisplayName: p.Label(),
			Breakdown:   make(map[domain.Criterion]int, len(weights)),
		}
		for _, c := range domain.Criteria {
			w, ok := weights[c]
			if !ok {
				continue
			}
			v := p.Score(c) * w
			sp.Breakdown[c] = v
			sp.Base += v
		}

		sp.Adjusted = sp.Base
		eliminated := false
		for _, c := range constraints {
			adj, drop := adjust(p, c, total)
			if drop {
				eliminated = true
				break
			}
			if adj != nil {
				sp.Adjusted += adj.Delta
				sp.Adjustments = append(sp.Adjustments, *adj)
			}
		}
		if eliminated {
			continue
		}

		sp.Display = display(sp.Adjusted, total)
		out = append(out, sp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Adjusted > out[j].Adjusted
	})
	return out, nil
}

func validate(weights domain.Weights, constraints []domain.Constraint) error {
	// Iterate in a fixed order so the reported criterion is deterministic.
	names := make([]string, 0, len(weights))
	for c := range weights {
		names = append(names, string(c))
	}
	sort.Strings(names)
	for _, name := range names {
		c := domain.Criterion(name)
		if !c.Valid() {
			return domain.NewConfigurationError("unknown criterion %q", name)
		}
		if weights[c] < 0 {
			return domain.NewConfigurationError("negative weight %d for criterion %q", weights[c], name)
		}
	}
	for i, c := range constraints {
		if !c.Kind.Valid() {
			return domain.NewConfigurationError("constraint %d: unknown kind %q", i, c.Kind)
		}
	}
	return nil
}

type rule struct {
	criterion func(domain.PatternCandidate) int
	threshold int
	hardLimit int
	delta     int
	// below is true when the rule triggers for values under the threshold.
	below bool
	// eliminateOnly rules never penalize survivors of a hard constraint.
	eliminateOnly bool
}

var rules = map[domain.ConstraintKind]rule{
	domain.ConstraintScale: {
		criterion: score(domain.CriterionScale), below: true,
		threshold: 60, hardLimit: 60, delta: 10, eliminateOnly: true,
	},
	domain.ConstraintBudget: {
		criterion: score(domain.CriterionCost), below: true,
		threshold: 50, hardLimit: 30, delta: 15,
	},
	domain.ConstraintTimeline: {
		criterion: score(domain.CriterionTimeToMarket), below: true,
		threshold: 50, hardLimit: 30, delta: 15,
	},
	domain.ConstraintTeam: {
		criterion: func(p domain.PatternCandidate) int { return p.Complexity },
		threshold: 60, hardLimit: 80, delta: 20,
	},
	domain.ConstraintCompliance: {
		criterion: score(domain.CriterionSecurity), below: true,
		threshold: 60, hardLimit: 50, delta: 15,
	},
}

func score(c domain.Criterion) func(domain.PatternCandidate) int {
	return func(p domain.PatternCandidate) int { return p.Score(c) }
}

// adjust applies one constraint to one pattern and reports whether the pattern is eliminated.
func adjust(p domain.PatternCandidate, c domain.Constraint, total int) (*domain.Adjustment, bool) {
	r, ok := rules[c.Kind]
	if !ok {
		return nil, false
	}
	v := r.criterion(p)
	if c.Hard && trips(v, r.hardLimit, r.below) {
		return nil, true
	}
	if c.Hard && r.eliminateOnly {
		return nil, false
	}
	if !trips(v, r.threshold, r.below) {
		return nil, false
	}
	return &domain.Adjustment{
		Constraint: c.Kind,
		Delta:      -r.delta * total,
		Reason:     reason(c.Kind, v, r),
	}, false
}

func trips(v, limit int, below bool) bool {
	if below {
		return v < limit
	}
	return v > limit
}

func reason(kind domain.ConstraintKind, v int, r rule) string {
	op := ">"
	if r.below {
		op = "<"
	}
	return fmt.Sprintf("%s constraint: fitness %d %s %d", kind, v, op, r.threshold)
}

func display(adjusted, total int) int {
	if total <= 0 {
		return 0
	}
	d := adjusted / total
	switch {
	case d < 0:
		return 0
	case d > 100:
		return 100
	}
	return d
}
