package scoring

import (
	"fmt"
	"strings"

	"github.com/aretw0/blueprint/pkg/domain"
	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEngine memoizes Shortlists by their inputs.
// Scoring is pure, so a cached result is indistinguishable from a fresh one.
type CachedEngine struct {
	inner *Engine
	cache *lru.Cache[string, domain.Shortlist]
}

// NewCached wraps an engine with an LRU cache of the given size.
func NewCached(inner *Engine, size int) (*CachedEngine, error) {
	c, err := lru.New[string, domain.Shortlist](size)
	if err != nil {
		return nil, fmt.Errorf("creating shortlist cache: %w", err)
	}
	return &CachedEngine{inner: inner, cache: c}, nil
}

// Shortlist returns a cached ranking when available. Errors are not cached.
func (e *CachedEngine) Shortlist(weights domain.Weights, constraints []domain.Constraint) (domain.Shortlist, error) {
	key := cacheKey(weights, constraints)
	if hit, ok := e.cache.Get(key); ok {
		return hit.Clone(), nil
	}
	out, err := e.inner.Shortlist(weights, constraints)
	if err != nil {
		return nil, err
	}
	e.cache.Add(key, out.Clone())
	return out, nil
}

// Len reports the number of cached entries.
func (e *CachedEngine) Len() int { return e.cache.Len() }

func cacheKey(weights domain.Weights, constraints []domain.Constraint) string {
	var b strings.Builder
	for _, c := range domain.Criteria {
		if w, ok := weights[c]; ok {
			fmt.Fprintf(&b, "%s=%d;", c, w)
		}
	}
	// Unknown criteria must reach the engine so they fail the same way.
	for c, w := range weights {
		if !c.Valid() {
			fmt.Fprintf(&b, "?%s=%d;", c, w)
		}
	}
	b.WriteByte('|')
	for _, c := range constraints {
		fmt.Fprintf(&b, "%s:%t;", c.Kind, c.Hard)
	}
	return b.String()
}
