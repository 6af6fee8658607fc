package domain

// ConstraintKind classifies a project constraint.
type ConstraintKind string

const (
	ConstraintBudget     ConstraintKind = "budget"
	ConstraintTimeline   ConstraintKind = "timeline"
	ConstraintTeam       ConstraintKind = "team"
	ConstraintCompliance ConstraintKind = "compliance"
	ConstraintScale      ConstraintKind = "scale"
	ConstraintTechnical  ConstraintKind = "technical"
)

// Valid reports whether k is a recognized constraint kind.
func (k ConstraintKind) Valid() bool {
	switch k {
	case ConstraintBudget, ConstraintTimeline, ConstraintTeam,
		ConstraintCompliance, ConstraintScale, ConstraintTechnical:
		return true
	}
	return false
}

// Constraint is a limitation captured from the user.
// Hard constraints eliminate patterns; soft ones only penalize them.
type Constraint struct {
	Kind        ConstraintKind `json:"kind"`
	Description string         `json:"description"`
	Hard        bool           `json:"hard"`
}

// Conflict is a detected tension between requirements or constraints.
type Conflict struct {
	Requirements []string `json:"requirements"`
	Explanation  string   `json:"explanation"`
	Compromises  []string `json:"compromises,omitempty"`
}
