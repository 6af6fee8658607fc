package ports

import "github.com/aretw0/blueprint/pkg/domain"

// KnowledgeBase is the lookup table of architecture patterns.
// Implementations must be pure and return patterns in declaration order.
type KnowledgeBase interface {
	LookupPatterns() []domain.PatternCandidate
}
