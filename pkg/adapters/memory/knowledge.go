package memory

import (
	"maps"
	"slices"

	"github.com/aretw0/blueprint/pkg/domain"
)

// KnowledgeBase implements ports.KnowledgeBase over a fixed slice of patterns.
// Useful for tests and for embedding custom tables without a file.
type KnowledgeBase struct {
	patterns []domain.PatternCandidate
}

// NewKnowledgeBase keeps the patterns in the given declaration order.
func NewKnowledgeBase(patterns ...domain.PatternCandidate) *KnowledgeBase {
	return &KnowledgeBase{patterns: copyPatterns(patterns)}
}

// LookupPatterns returns a copy of the table.
func (kb *KnowledgeBase) LookupPatterns() []domain.PatternCandidate {
	return copyPatterns(kb.patterns)
}

func copyPatterns(in []domain.PatternCandidate) []domain.PatternCandidate {
	out := make([]domain.PatternCandidate, len(in))
	for i, p := range in {
		p.Scores = maps.Clone(p.Scores)
		p.BestFor = slices.Clone(p.BestFor)
		out[i] = p
	}
	return out
}
