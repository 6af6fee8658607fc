package domain

import (
	"maps"
	"slices"
	"strings"
)

// PatternCandidate is one architecture pattern from the knowledge base.
// It is immutable for the lifetime of a session.
type PatternCandidate struct {
	Name        string            `json:"name" yaml:"name"`
	DisplayName string            `json:"display_name" yaml:"display_name"`
	Description string            `json:"description,omitempty" yaml:"description"`
	Scores      map[Criterion]int `json:"scores" yaml:"scores"`
	Complexity  int               `json:"complexity" yaml:"complexity"`
	BestFor     []string          `json:"best_for,omitempty" yaml:"best_for"`
}

// Score returns the fitness of the pattern for the criterion (0 when absent).
func (p PatternCandidate) Score(c Criterion) int {
	return p.Scores[c]
}

// Label returns the display name, falling back to the identifier.
func (p PatternCandidate) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// Adjustment records a constraint-driven delta applied to a pattern's score.
type Adjustment struct {
	Constraint ConstraintKind `json:"constraint"`
	Delta      int            `json:"delta"`
	Reason     string         `json:"reason"`
}

// ScoredPattern is a candidate ranked for the current Context.
type ScoredPattern struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Base        int               `json:"base"`
	Adjusted    int               `json:"adjusted"`
	Display     int               `json:"display"`
	Breakdown   map[Criterion]int `json:"breakdown"`
	Adjustments []Adjustment      `json:"adjustments,omitempty"`
}

// Shortlist is an ordered sequence of scored patterns, best first.
type Shortlist []ScoredPattern

// Top returns at most n leading entries.
func (s Shortlist) Top(n int) Shortlist {
	if n >= len(s) {
		return s
	}
	return s[:n]
}

// Names returns the pattern names in rank order.
func (s Shortlist) Names() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.Name
	}
	return out
}

// Clone returns a deep copy of the shortlist.
func (s Shortlist) Clone() Shortlist {
	if s == nil {
		return nil
	}
	out := make(Shortlist, len(s))
	for i, p := range s {
		p.Adjustments = slices.Clone(p.Adjustments)
		p.Breakdown = maps.Clone(p.Breakdown)
		out[i] = p
	}
	return out
}

// SamePattern reports whether two pattern names refer to the same pattern,
// ignoring case and the separator style ("Modular Monolith" == "modular_monolith").
func SamePattern(a, b string) bool {
	na, nb := NormalizePattern(a), NormalizePattern(b)
	return na != "" && na == nb
}

// NormalizePattern lowercases a pattern name and joins its words with underscores.
func NormalizePattern(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}
