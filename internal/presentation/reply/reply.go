// Package reply composes the user-facing markdown for each outcome of a session turn.
package reply

import (
	"fmt"
	"strings"

	"github.com/aretw0/blueprint/pkg/domain"
)

// Apology is the only text shown on OutcomeError. Internal error detail never reaches it.
const Apology = "Sorry, something went wrong while preparing your architecture recommendation. " +
	"Your progress has been saved; please try again in a moment."

// Compose renders the reply for a finished turn.
func Compose(s *domain.Session, outcome domain.Outcome) string {
	switch outcome {
	case domain.OutcomeDelivered:
		if s.Blueprint == nil {
			return Apology
		}
		return Status(s.LastDecision) + Blueprint(s.Blueprint, s.Shortlist) + FailureModes(s.Critique)
	case domain.OutcomeAwaitingUser:
		return Questions(s.OpenQuestions)
	}
	return Apology
}

// Status explains why the gate stopped when the result was not a clean accept.
// It is empty for rule 4 and for sessions without a recorded decision.
func Status(d *domain.Decision) string {
	if d == nil {
		return ""
	}
	switch d.Reason {
	case domain.GateReasonBestEffort:
		return fmt.Sprintf("> **Status: best effort.** Revision limit reached after %d revisions at %.0f%% confidence. "+
			"This is the strongest result available, not a confident recommendation; review it with your team before building on it.\n\n",
			d.Revision, d.Confidence*100)
	case domain.GateReasonNoImprovement:
		return fmt.Sprintf("> **Status: no structural improvement.** Another revision kept the same pattern (%s) at %.0f%% confidence, "+
			"so revising further would not change the answer. Treat it as low confidence.\n\n",
			d.Pattern, d.Confidence*100)
	case domain.GateReasonWithAssumptions:
		return fmt.Sprintf("> **Status: accepted with assumptions.** Confidence is %.0f%%, below the bar for a clean accept. "+
			"The result rests on the assumptions and failure modes listed below; validate them before implementation.\n\n",
			d.Confidence*100)
	}
	return ""
}

// FailureModes lists the reviewer's failure modes with their mitigations.
func FailureModes(c *domain.CritiqueOutput) string {
	if c == nil || len(c.FailureModes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n## Failure modes\n\n")
	for _, fm := range c.FailureModes {
		fmt.Fprintf(&b, "- **%s** %s", fm.Severity, fm.Failure)
		if fm.Mitigation != "" {
			fmt.Fprintf(&b, "  \n  _Mitigation:_ %s", fm.Mitigation)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Questions renders the open questions the user is asked to answer.
func Questions(qs []domain.Question) string {
	var b strings.Builder
	b.WriteString("## A few questions before I finalize\n\n")
	if len(qs) == 0 {
		b.WriteString("Could you tell me more about your scale, team and constraints?\n")
		return b.String()
	}
	for i, q := range qs {
		fmt.Fprintf(&b, "%d. **%s**", i+1, q.Question)
		if q.WhyItMatters != "" {
			fmt.Fprintf(&b, "  \n   _%s_", q.WhyItMatters)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Blueprint renders the merged result as a markdown document.
func Blueprint(bp *domain.Blueprint, shortlist domain.Shortlist) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Recommended architecture: %s\n\n", bp.RecommendedPattern)
	if bp.ExecutiveSummary != "" {
		fmt.Fprintf(&b, "%s\n\n", bp.ExecutiveSummary)
	}
	fmt.Fprintf(&b, "**Confidence:** %.0f%% · **Cost:** %s · **Ops:** %s\n\n", bp.Confidence*100, bp.CostBand, bp.OpsBand)

	if len(shortlist) > 0 {
		b.WriteString(Shortlist(shortlist.Top(3)))
		b.WriteString("\n")
	}

	list(&b, "Key decisions", bp.KeyDecisions)

	if len(bp.TechStack) > 0 {
		b.WriteString("## Tech stack\n\n| Layer | Technology | Why |\n|---|---|---|\n")
		for _, t := range bp.TechStack {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(t.Layer), cell(t.Technology), cell(t.Reason))
		}
		b.WriteString("\n")
	}

	if len(bp.Roadmap) > 0 {
		b.WriteString("## Roadmap\n\n")
		for _, p := range bp.Roadmap {
			fmt.Fprintf(&b, "### %s\n\n", p.Phase)
			for _, t := range p.Tasks {
				fmt.Fprintf(&b, "- %s\n", t)
			}
			b.WriteString("\n")
		}
	}

	if len(bp.ADRs) > 0 {
		b.WriteString("## Architecture decision records\n\n")
		for _, a := range bp.ADRs {
			fmt.Fprintf(&b, "### %s: %s\n\n", a.ID, a.Title)
			fmt.Fprintf(&b, "- **Context:** %s\n- **Decision:** %s\n- **Consequences:** %s\n\n", a.Context, a.Decision, a.Consequences)
		}
	}

	if len(bp.Risks) > 0 {
		b.WriteString("## Risks\n\n")
		for _, r := range bp.Risks {
			fmt.Fprintf(&b, "- **%s** %s\n", r.Severity, r.Description)
		}
		b.WriteString("\n")
	}

	list(&b, "Assumptions", bp.Assumptions)
	list(&b, "Dissenting views", bp.Dissent)

	if bp.Diagram != "" {
		fmt.Fprintf(&b, "## Diagram\n\n```mermaid\n%s\n```\n", strings.TrimSpace(bp.Diagram))
	}
	return b.String()
}

// Shortlist renders scored candidates as a table.
func Shortlist(sl domain.Shortlist) string {
	var b strings.Builder
	b.WriteString("| # | Pattern | Score | Adjusted |\n|---|---|---|---|\n")
	for i, p := range sl {
		name := p.DisplayName
		if name == "" {
			name = p.Name
		}
		fmt.Fprintf(&b, "| %d | %s | %d | %d |\n", i+1, cell(name), p.Display, p.Adjusted)
	}
	return b.String()
}

func list(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
