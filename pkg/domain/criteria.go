package domain

import "fmt"

// Criterion is a named decision criterion that patterns are scored against.
type Criterion string

const (
	CriterionTimeToMarket Criterion = "time_to_market"
	CriterionCost         Criterion = "cost"
	CriterionScale        Criterion = "scale"
	CriterionReliability  Criterion = "reliability"
	CriterionSecurity     Criterion = "security"
)

// Criteria lists every known criterion in declaration order.
var Criteria = []Criterion{
	CriterionTimeToMarket,
	CriterionCost,
	CriterionScale,
	CriterionReliability,
	CriterionSecurity,
}

// Valid reports whether c is a known criterion.
func (c Criterion) Valid() bool {
	for _, known := range Criteria {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCriterion converts a raw name into a Criterion.
func ParseCriterion(s string) (Criterion, error) {
	c := Criterion(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown criterion %q", s)
	}
	return c, nil
}

// Weights maps a criterion to its integer weight.
type Weights map[Criterion]int

// Total returns the sum of all weights.
func (w Weights) Total() int {
	total := 0
	for _, v := range w {
		total += v
	}
	return total
}

// DecisionProfile is a pre-defined prioritization shortcut.
type DecisionProfile string

const (
	ProfileMVPFast       DecisionProfile = "mvp_fast"
	ProfileCostFirst     DecisionProfile = "cost_first"
	ProfileScaleFirst    DecisionProfile = "scale_first"
	ProfileSecurityFirst DecisionProfile = "security_first"
)

var profileRankings = map[DecisionProfile][]Criterion{
	ProfileMVPFast:       {CriterionTimeToMarket, CriterionCost, CriterionReliability, CriterionSecurity, CriterionScale},
	ProfileCostFirst:     {CriterionCost, CriterionTimeToMarket, CriterionReliability, CriterionSecurity, CriterionScale},
	ProfileScaleFirst:    {CriterionScale, CriterionReliability, CriterionSecurity, CriterionCost, CriterionTimeToMarket},
	ProfileSecurityFirst: {CriterionSecurity, CriterionReliability, CriterionScale, CriterionCost, CriterionTimeToMarket},
}

// Valid reports whether p is a known profile.
func (p DecisionProfile) Valid() bool {
	_, ok := profileRankings[p]
	return ok
}

// Ranking returns the default priority ranking for the profile, or nil if unknown.
func (p DecisionProfile) Ranking() []Criterion {
	r, ok := profileRankings[p]
	if !ok {
		return nil
	}
	out := make([]Criterion, len(r))
	copy(out, r)
	return out
}

// RankWeights converts an ordered ranking into rank-based weights.
// With n ranked criteria the first gets n and the last gets 1. Known criteria absent
// from the ranking get 1, so an empty ranking yields balanced weights.
// Names are not validated here; the scoring engine rejects unknown criteria.
func RankWeights(ranking []Criterion) Weights {
	w := make(Weights, len(Criteria))
	for _, c := range Criteria {
		w[c] = 1
	}
	n := len(ranking)
	seen := make(map[Criterion]bool, n)
	for i, c := range ranking {
		if seen[c] {
			continue
		}
		seen[c] = true
		w[c] = n - i
	}
	return w
}
