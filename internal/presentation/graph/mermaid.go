package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/blueprint/internal/runtime"
	"github.com/aretw0/blueprint/pkg/domain"
)

// Overlay contains dynamic session data to visualize on the workflow.
type Overlay struct {
	Visited []domain.Phase
	Current domain.Phase
}

type edge struct {
	from, to domain.Phase
	label    string
	dashed   bool
}

var edges = []edge{
	{from: domain.PhaseIntake, to: domain.PhasePriority},
	{from: domain.PhasePriority, to: domain.PhaseConflict},
	{from: domain.PhaseConflict, to: domain.PhaseDeepDive},
	{from: domain.PhaseDeepDive, to: domain.PhaseGenerate},
	{from: domain.PhaseGenerate, to: domain.PhaseCritique},
	{from: domain.PhaseGenerate, to: domain.PhaseCostOps},
	{from: domain.PhaseCritique, to: domain.PhaseSynthesize},
	{from: domain.PhaseCostOps, to: domain.PhaseSynthesize},
	{from: domain.PhaseSynthesize, to: domain.PhaseGate},
	{from: domain.PhaseGate, to: domain.PhaseGenerate, label: "retry", dashed: true},
}

const (
	nodeDelivered = "delivered"
	nodeAwaiting  = "awaiting_user"
)

// WorkflowMermaid produces a Mermaid flowchart of the recommendation workflow.
// Expert phases are rectangles, fan-out branches subroutines and the gate a rhombus.
// It also applies overlay styles (Visited/Current) if provided.
func WorkflowMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, p := range domain.Phases {
		opener, closer := "[", "]"
		switch p {
		case domain.PhaseCritique, domain.PhaseCostOps:
			opener, closer = "[[", "]]"
		case domain.PhaseGate:
			opener, closer = "{", "}"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", p, opener, p, closer)
	}
	fmt.Fprintf(&sb, "    %s((\"delivered\"))\n", nodeDelivered)
	fmt.Fprintf(&sb, "    %s[/\"awaiting user\"/]\n", nodeAwaiting)

	for _, e := range edges {
		arrow := "-->"
		if e.dashed {
			arrow = fmt.Sprintf("-. \"%s\" .->", e.label)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", e.from, arrow, e.to)
	}
	fmt.Fprintf(&sb, "    %s -- \"terminal\" --> %s\n", domain.PhaseGate, nodeDelivered)
	fmt.Fprintf(&sb, "    %s -- \"needs info\" --> %s\n", domain.PhaseGate, nodeAwaiting)
	fmt.Fprintf(&sb, "    %s -. \"reply\" .-> %s\n", nodeAwaiting, domain.PhaseGenerate)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.Phase]bool)
		for _, p := range overlay.Visited {
			if !seen[p] && p != "" {
				seen[p] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", p)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", overlay.Current)
		}
	}
	return sb.String()
}

// OverlayFor derives progress from the slots a session has filled.
// Current is the phase the next turn would start at, or the terminal node.
func OverlayFor(s *domain.Session) *Overlay {
	o := &Overlay{}
	visit := func(ok bool, p domain.Phase) {
		if ok {
			o.Visited = append(o.Visited, p)
		}
	}
	visit(len(s.Requirements) > 0 || s.ProjectName != "", domain.PhaseIntake)
	visit(len(s.Ranking) > 0 || s.Profile != "", domain.PhasePriority)
	visit(len(s.Conflicts) > 0, domain.PhaseConflict)
	visit(s.Generated != nil || s.Blueprint != nil, domain.PhaseGenerate)
	visit(s.Critique != nil, domain.PhaseCritique)
	visit(s.CostOps != nil, domain.PhaseCostOps)
	visit(s.Blueprint != nil, domain.PhaseSynthesize)
	visit(s.LastDecision != nil, domain.PhaseGate)

	switch {
	case s.Delivered():
		o.Current = nodeDelivered
	case s.AwaitingUser:
		o.Current = nodeAwaiting
	default:
		o.Current = runtime.ResolveEntry(s)
	}
	return o
}
