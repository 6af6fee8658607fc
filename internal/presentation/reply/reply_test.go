package reply_test

import (
	"strings"
	"testing"

	"github.com/aretw0/blueprint/internal/presentation/reply"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCompose_Delivered(t *testing.T) {
	s := &domain.Session{
		Blueprint: &domain.Blueprint{
			ExpertOutput: domain.ExpertOutput{
				RecommendedPattern: "modular_monolith",
				Confidence:         0.82,
				CostBand:           domain.BandLow,
				OpsBand:            domain.BandMedium,
				KeyDecisions:       []string{"single deployable"},
				TechStack:          []domain.TechChoice{{Layer: "db", Technology: "Postgres", Reason: "a | b"}},
			},
			ExecutiveSummary: "Start simple.",
			ADRs:             []domain.ADR{{ID: "ADR-001", Title: "Monolith first"}},
		},
		Shortlist: domain.Shortlist{{Name: "modular_monolith", DisplayName: "Modular Monolith", Display: 75, Adjusted: 375}},
	}

	md := reply.Compose(s, domain.OutcomeDelivered)
	assert.Contains(t, md, "# Recommended architecture: modular_monolith")
	assert.Contains(t, md, "**Confidence:** 82%")
	assert.Contains(t, md, "| 1 | Modular Monolith | 75 | 375 |")
	assert.Contains(t, md, "a \\| b", "pipes must be escaped inside table cells")
	assert.Contains(t, md, "### ADR-001: Monolith first")
	assert.NotContains(t, md, "## Diagram")
}

func TestCompose_AwaitingUser(t *testing.T) {
	s := &domain.Session{OpenQuestions: []domain.Question{
		{Question: "Expected peak traffic?", WhyItMatters: "drives the scale decision"},
	}}

	md := reply.Compose(s, domain.OutcomeAwaitingUser)
	assert.Contains(t, md, "1. **Expected peak traffic?**")
	assert.Contains(t, md, "_drives the scale decision_")
}

func TestCompose_ErrorIsFixedApology(t *testing.T) {
	assert.Equal(t, reply.Apology, reply.Compose(&domain.Session{}, domain.OutcomeError))
	assert.Equal(t, reply.Apology, reply.Compose(&domain.Session{}, domain.OutcomeDelivered), "delivered without a blueprint")
}

func TestCompose_DeliveredStatusByGateReason(t *testing.T) {
	tests := []struct {
		name    string
		reason  domain.GateReason
		want    []string
		notWant string
	}{
		{
			name:    "accept has no status",
			reason:  domain.GateReasonAccept,
			notWant: "Status:",
		},
		{
			name:   "accept with assumptions",
			reason: domain.GateReasonWithAssumptions,
			want:   []string{"**Status: accepted with assumptions.**", "Confidence is 20%"},
		},
		{
			name:   "best effort after the revision limit",
			reason: domain.GateReasonBestEffort,
			want:   []string{"**Status: best effort.**", "after 2 revisions", "at 20% confidence"},
		},
		{
			name:   "no structural improvement",
			reason: domain.GateReasonNoImprovement,
			want:   []string{"**Status: no structural improvement.**", "same pattern (serverless)", "low confidence"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &domain.Session{
				Blueprint: &domain.Blueprint{ExpertOutput: domain.ExpertOutput{RecommendedPattern: "serverless", Confidence: 0.2}},
				LastDecision: &domain.Decision{
					Outcome:    domain.GateTerminal,
					Reason:     tt.reason,
					Confidence: 0.2,
					Revision:   2,
					Pattern:    "serverless",
				},
			}

			md := reply.Compose(s, domain.OutcomeDelivered)
			assert.Contains(t, md, "# Recommended architecture: serverless")
			for _, w := range tt.want {
				assert.Contains(t, md, w)
			}
			if tt.notWant != "" {
				assert.NotContains(t, md, tt.notWant)
			}
			if len(tt.want) > 0 {
				assert.True(t, strings.HasPrefix(md, "> **Status:"), "status leads the reply")
			}
		})
	}
}

func TestCompose_ListsFailureModes(t *testing.T) {
	s := &domain.Session{
		Blueprint: &domain.Blueprint{ExpertOutput: domain.ExpertOutput{RecommendedPattern: "event_driven", Confidence: 0.6}},
		Critique: &domain.CritiqueOutput{FailureModes: []domain.FailureMode{
			{Failure: "broker outage stalls checkout", Severity: domain.SeverityHigh, Mitigation: "outbox with retries"},
			{Failure: "duplicate events", Severity: domain.SeverityMedium},
		}},
		LastDecision: &domain.Decision{Reason: domain.GateReasonWithAssumptions, Confidence: 0.6},
	}

	md := reply.Compose(s, domain.OutcomeDelivered)
	assert.Contains(t, md, "## Failure modes")
	assert.Contains(t, md, "- **high** broker outage stalls checkout")
	assert.Contains(t, md, "_Mitigation:_ outbox with retries")
	assert.Contains(t, md, "- **medium** duplicate events")
}
