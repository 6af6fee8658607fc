package expert

import "github.com/aretw0/blueprint/pkg/ports"

// Shape names, also used by the scripted capability to pick canned payloads.
const (
	ShapeIntake    = "intake"
	ShapePriority  = "priority"
	ShapeConflict  = "conflict"
	ShapeDeepDive  = "deep_dive"
	ShapeExpert    = "expert_output"
	ShapeCritique  = "critique"
	ShapeCostOps   = "cost_ops"
	ShapeBlueprint = "blueprint"
)

const expertFields = `"summary": "one paragraph",
  "recommended_pattern": "modular_monolith",
  "key_decisions": ["3 to 7 short decisions"],
  "tech_stack": [{"layer": "backend", "technology": "Go", "reason": "why"}],
  "risks": [{"description": "risk", "severity": "low|medium|high|critical"}],
  "unknowns": [{"description": "open fact", "impact": "low|medium|high"}],
  "diagram": "optional mermaid source",
  "cost_band": "low|medium|high",
  "ops_band": "low|medium|high",
  "confidence": 0.0`

var expertRequired = []string{
	"summary", "recommended_pattern", "key_decisions", "tech_stack",
	"risks", "unknowns", "cost_band", "ops_band", "confidence",
}

var (
	intakeShape = ports.Shape{Name: ShapeIntake, Example: `{
  "project_name": "name",
  "summary": "what the user wants to build",
  "requirements": ["requirement"],
  "constraints": [{"kind": "budget|timeline|team|compliance|scale|technical", "description": "text", "hard": false}],
  "questions": ["clarifying question"],
  "confidence": 0.0
}`}
	intakeRequired = []string{"summary", "requirements", "constraints", "confidence"}

	priorityShape = ports.Shape{Name: ShapePriority, Example: `{
  "profile": "mvp_fast|cost_first|scale_first|security_first",
  "ranking": ["time_to_market", "cost", "scale", "reliability", "security"],
  "confidence": 0.0,
  "reasoning": "why this order"
}`}
	priorityRequired = []string{"ranking", "confidence"}

	conflictShape = ports.Shape{Name: ShapeConflict, Example: `{
  "conflicts": [{"requirements": ["a", "b"], "explanation": "why they clash", "compromises": ["option"]}],
  "coherence": 0.0
}`}
	conflictRequired = []string{"conflicts", "coherence"}

	deepDiveShape = ports.Shape{Name: ShapeDeepDive, Example: `{
  "requirements": ["newly surfaced requirement"],
  "constraints": [{"kind": "scale", "description": "text", "hard": true}],
  "questions": ["question for the user"],
  "ready": true
}`}
	deepDiveRequired = []string{"requirements", "constraints", "ready"}

	expertShape = ports.Shape{Name: ShapeExpert, Example: "{\n  " + expertFields + "\n}"}

	critiqueShape = ports.Shape{Name: ShapeCritique, Example: "{\n  " + expertFields + `,
  "issues": ["at most 10 issues"],
  "fixes": ["suggested fix"],
  "questions": [{"question": "for the user", "why_it_matters": "reason"}],
  "failure_modes": [{"failure": "what breaks", "severity": "high", "mitigation": "how"}],
  "low_confidence_reason": "missing_info|conflicting_constraints|weak_justification|wrong_pattern|risks_acknowledged"
}`}
	critiqueRequired = append(append([]string{}, expertRequired...), "issues", "fixes", "questions", "failure_modes")

	costOpsShape = ports.Shape{Name: ShapeCostOps, Example: `{
  "summary": "cost and operations view",
  "cost_band": "low|medium|high",
  "ops_band": "low|medium|high",
  "cost_drivers": ["driver"],
  "cost_reducers": ["reducer"],
  "team_fit": "can the team run this",
  "time_estimate": "e.g. 3 months",
  "over_engineering": ["flag"],
  "risks": [{"description": "risk", "severity": "medium"}],
  "confidence": 0.0
}`}
	costOpsRequired = []string{"summary", "cost_band", "ops_band", "cost_drivers", "risks", "confidence"}

	blueprintShape = ports.Shape{Name: ShapeBlueprint, Example: "{\n  " + expertFields + `,
  "executive_summary": "for decision makers",
  "roadmap": [{"phase": "mvp", "tasks": ["task"]}],
  "adrs": [{"id": "ADR-001", "title": "t", "context": "c", "decision": "d", "consequences": "q"}],
  "assumptions": ["3 to 8 explicit assumptions"],
  "dissent": ["minority opinion"]
}`}
	blueprintRequired = append(append([]string{}, expertRequired...), "executive_summary", "roadmap", "adrs", "assumptions")
)
