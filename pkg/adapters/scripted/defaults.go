package scripted

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/blueprint/pkg/expert"
)

// Defaults holds a valid canned payload for every expert shape.
// Together they drive a session straight to a delivered blueprint.
var Defaults = map[string]string{
	expert.ShapeIntake: `{
  "project_name": "Online Store",
  "summary": "A web shop for a small retailer with catalog, cart and checkout.",
  "requirements": ["product catalog", "shopping cart", "card payments"],
  "constraints": [{"kind": "budget", "description": "under $500 per month", "hard": false}],
  "questions": [],
  "confidence": 0.8
}`,
	expert.ShapePriority: `{
  "profile": "mvp_fast",
  "ranking": ["time_to_market", "cost", "reliability", "security", "scale"],
  "confidence": 0.8,
  "reasoning": "Small team racing to launch."
}`,
	expert.ShapeConflict: `{
  "conflicts": [],
  "coherence": 0.9
}`,
	expert.ShapeDeepDive: `{
  "requirements": ["order history for customers"],
  "constraints": [],
  "questions": [],
  "ready": true
}`,
	expert.ShapeExpert: `{
  "summary": "A modular monolith with catalog, cart and payments modules.",
  "recommended_pattern": "modular_monolith",
  "key_decisions": ["single deployable", "module per bounded context", "managed Postgres"],
  "tech_stack": [{"layer": "backend", "technology": "Go", "reason": "simple deployment"}],
  "risks": [{"description": "module boundaries erode", "severity": "medium"}],
  "unknowns": [{"description": "peak traffic", "impact": "medium"}],
  "cost_band": "low",
  "ops_band": "low",
  "confidence": 0.8
}`,
	expert.ShapeCritique: `{
  "summary": "Sound choice for the stated scale.",
  "recommended_pattern": "modular_monolith",
  "key_decisions": ["keep one deployable", "enforce module APIs", "add read replicas later"],
  "tech_stack": [],
  "risks": [{"description": "payment provider outage", "severity": "high"}],
  "unknowns": [],
  "cost_band": "low",
  "ops_band": "low",
  "confidence": 0.8,
  "issues": ["no caching strategy"],
  "fixes": ["add a CDN for catalog images"],
  "questions": [],
  "failure_modes": [{"failure": "database saturation", "severity": "medium", "mitigation": "connection pooling"}]
}`,
	expert.ShapeCostOps: `{
  "summary": "Fits a small budget with one managed database.",
  "cost_band": "low",
  "ops_band": "low",
  "cost_drivers": ["managed database"],
  "cost_reducers": ["reserved instances"],
  "team_fit": "A team of three can operate it.",
  "time_estimate": "3 months",
  "over_engineering": [],
  "risks": [],
  "confidence": 0.8
}`,
	expert.ShapeBlueprint: `{
  "summary": "Ship a modular monolith on managed infrastructure.",
  "recommended_pattern": "modular_monolith",
  "key_decisions": ["single deployable", "module per bounded context", "managed Postgres"],
  "tech_stack": [
    {"layer": "backend", "technology": "Go", "reason": "simple deployment"},
    {"layer": "database", "technology": "PostgreSQL", "reason": "relational orders"}
  ],
  "risks": [{"description": "module boundaries erode", "severity": "medium"}],
  "unknowns": [{"description": "peak traffic", "impact": "medium"}],
  "cost_band": "low",
  "ops_band": "low",
  "confidence": 0.82,
  "executive_summary": "A modular monolith gets the store to market fastest at the lowest cost.",
  "roadmap": [
    {"phase": "mvp", "tasks": ["catalog", "cart", "checkout"]},
    {"phase": "growth", "tasks": ["caching", "read replicas"]}
  ],
  "adrs": [
    {"id": "ADR-001", "title": "Modular monolith", "context": "small team", "decision": "one deployable", "consequences": "simple ops"},
    {"id": "ADR-002", "title": "PostgreSQL", "context": "orders are relational", "decision": "managed Postgres", "consequences": "vendor cost"},
    {"id": "ADR-003", "title": "Hosted payments", "context": "PCI scope", "decision": "use a payment provider", "consequences": "provider dependency"}
  ],
  "assumptions": ["under 10k daily users", "single region", "team of three"],
  "dissent": []
}`,
}

// Payload returns the default payload for a shape with top-level keys replaced.
// A nil override value removes the key.
func Payload(shape string, overrides map[string]any) json.RawMessage {
	var m map[string]any
	if err := json.Unmarshal([]byte(Defaults[shape]), &m); err != nil {
		panic(fmt.Sprintf("no default payload for shape %q: %v", shape, err))
	}
	for k, v := range overrides {
		if v == nil {
			delete(m, k)
			continue
		}
		m[k] = v
	}
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return data
}
