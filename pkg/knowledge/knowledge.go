// Package knowledge provides the architecture pattern table consumed by the scoring engine.
package knowledge

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/aretw0/blueprint/pkg/domain"
	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var builtin []byte

type document struct {
	Patterns []domain.PatternCandidate `yaml:"patterns"`
}

// Base is an immutable, validated knowledge base.
type Base struct {
	patterns []domain.PatternCandidate
}

// Builtin returns the embedded six-pattern table.
func Builtin() *Base {
	b, err := Parse(builtin)
	if err != nil {
		panic(fmt.Sprintf("embedded knowledge base is invalid: %v", err))
	}
	return b
}

// Load reads a knowledge base from a YAML file.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: "reading knowledge base " + path, Err: err}
	}
	return Parse(data)
}

// Parse decodes and validates a YAML knowledge base.
func Parse(data []byte) (*Base, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ConfigurationError{Reason: "malformed knowledge base", Err: err}
	}
	if err := Validate(doc.Patterns); err != nil {
		return nil, err
	}
	return &Base{patterns: doc.Patterns}, nil
}

// Validate checks that every pattern has a unique name and a full score vector in range.
func Validate(patterns []domain.PatternCandidate) error {
	if len(patterns) == 0 {
		return domain.NewConfigurationError("knowledge base has no patterns")
	}
	seen := make(map[string]bool, len(patterns))
	for i, p := range patterns {
		if p.Name == "" {
			return domain.NewConfigurationError("pattern %d has no name", i)
		}
		if seen[p.Name] {
			return domain.NewConfigurationError("duplicate pattern %q", p.Name)
		}
		seen[p.Name] = true
		for c := range p.Scores {
			if !c.Valid() {
				return domain.NewConfigurationError("pattern %q: unknown criterion %q", p.Name, c)
			}
		}
		for _, c := range domain.Criteria {
			v, ok := p.Scores[c]
			if !ok {
				return domain.NewConfigurationError("pattern %q: missing score for %q", p.Name, c)
			}
			if v < 0 || v > 100 {
				return domain.NewConfigurationError("pattern %q: score %d for %q out of range", p.Name, v, c)
			}
		}
		if p.Complexity < 0 || p.Complexity > 100 {
			return domain.NewConfigurationError("pattern %q: complexity %d out of range", p.Name, p.Complexity)
		}
	}
	return nil
}

// LookupPatterns returns a copy of the table in declaration order.
func (b *Base) LookupPatterns() []domain.PatternCandidate {
	out := make([]domain.PatternCandidate, len(b.patterns))
	for i, p := range b.patterns {
		p.Scores = maps.Clone(p.Scores)
		p.BestFor = slices.Clone(p.BestFor)
		out[i] = p
	}
	return out
}

// Get returns the named pattern.
func (b *Base) Get(name string) (domain.PatternCandidate, bool) {
	for _, p := range b.patterns {
		if p.Name == name {
			return p, true
		}
	}
	return domain.PatternCandidate{}, false
}
