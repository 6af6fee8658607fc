package expert

import (
	"github.com/aretw0/blueprint/pkg/ports"
)

// Role names one expert transform.
type Role string

const (
	RoleIntake     Role = "intake"
	RolePriority   Role = "priority"
	RoleConflict   Role = "conflict"
	RoleDeepDive   Role = "deep_dive"
	RoleGenerate   Role = "generate"
	RoleCritique   Role = "critique"
	RoleCostOps    Role = "cost_ops"
	RoleSynthesize Role = "synthesize"
)

// Roles lists every role in workflow order.
var Roles = []Role{
	RoleIntake, RolePriority, RoleConflict, RoleDeepDive,
	RoleGenerate, RoleCritique, RoleCostOps, RoleSynthesize,
}

// Binding selects the capability a role runs on.
type Binding int

const (
	// BindSecondary runs on the secondary capability and falls back once on failure.
	BindSecondary Binding = iota
	// BindPrimary runs on the primary capability; failures are never retried.
	BindPrimary
)

func (b Binding) String() string {
	if b == BindPrimary {
		return "primary"
	}
	return "secondary"
}

// DefaultBindings makes generate and synthesize hard dependencies on the primary capability.
func DefaultBindings() map[Role]Binding {
	b := make(map[Role]Binding, len(Roles))
	for _, r := range Roles {
		b[r] = BindSecondary
	}
	b[RoleGenerate] = BindPrimary
	b[RoleSynthesize] = BindPrimary
	return b
}

// Spec is the static definition of a role.
type Spec struct {
	Role     Role
	System   string
	Shape    ports.Shape
	Required []string
}

var specs = map[Role]Spec{
	RoleIntake:     {Role: RoleIntake, System: intakePrompt, Shape: intakeShape, Required: intakeRequired},
	RolePriority:   {Role: RolePriority, System: priorityPrompt, Shape: priorityShape, Required: priorityRequired},
	RoleConflict:   {Role: RoleConflict, System: conflictPrompt, Shape: conflictShape, Required: conflictRequired},
	RoleDeepDive:   {Role: RoleDeepDive, System: deepDivePrompt, Shape: deepDiveShape, Required: deepDiveRequired},
	RoleGenerate:   {Role: RoleGenerate, System: generatePrompt, Shape: expertShape, Required: expertRequired},
	RoleCritique:   {Role: RoleCritique, System: critiquePrompt, Shape: critiqueShape, Required: critiqueRequired},
	RoleCostOps:    {Role: RoleCostOps, System: costOpsPrompt, Shape: costOpsShape, Required: costOpsRequired},
	RoleSynthesize: {Role: RoleSynthesize, System: synthesizePrompt, Shape: blueprintShape, Required: blueprintRequired},
}

// SpecFor returns the definition of a role.
func SpecFor(r Role) (Spec, bool) {
	s, ok := specs[r]
	return s, ok
}
