package domain

import (
	"slices"
	"time"
)

// ChangeEntry is one append-only change log record.
type ChangeEntry struct {
	Agent       string    `json:"agent"`
	Description string    `json:"description"`
	Revision    int       `json:"revision"`
	At          time.Time `json:"at"`
}

// Message is one transcript entry.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Phase   Phase     `json:"phase,omitempty"`
	At      time.Time `json:"at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is the single mutable record threaded through every phase.
// It is passed by pointer into each phase and returned as a new value;
// phases work on a Clone and the caller commits it on success.
type Session struct {
	ID          string `json:"id"`
	ProjectName string `json:"project_name,omitempty"`
	Summary     string `json:"summary,omitempty"`

	// Requirements holds free-text requirements in capture order.
	Requirements []string        `json:"requirements"`
	Ranking      []Criterion     `json:"ranking,omitempty"`
	Profile      DecisionProfile `json:"profile,omitempty"`
	Constraints  []Constraint    `json:"constraints,omitempty"`
	Conflicts    []Conflict      `json:"conflicts,omitempty"`

	// RevisionCount never decreases while the session lives (reset aside).
	RevisionCount       int                 `json:"revision_count"`
	LastPattern         string              `json:"last_pattern,omitempty"`
	LowConfidenceReason LowConfidenceReason `json:"low_confidence_reason,omitempty"`
	AwaitingUser        bool                `json:"awaiting_user"`

	Shortlist Shortlist       `json:"shortlist,omitempty"`
	Generated *ExpertOutput   `json:"generated,omitempty"`
	Critique  *CritiqueOutput `json:"critique,omitempty"`
	CostOps   *CostOpsOutput  `json:"cost_ops,omitempty"`
	Blueprint *Blueprint      `json:"blueprint,omitempty"`

	OpenQuestions []Question `json:"open_questions,omitempty"`
	Messages      []Message  `json:"messages,omitempty"`
	LastDecision  *Decision  `json:"last_decision,omitempty"`

	ChangeLog []ChangeEntry `json:"change_log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates an empty session context.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		Requirements: []string{},
		ChangeLog:    []ChangeEntry{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AppendChange adds a change log entry stamped with the current revision.
func (s *Session) AppendChange(agent, description string) {
	s.ChangeLog = append(s.ChangeLog, ChangeEntry{
		Agent:       agent,
		Description: description,
		Revision:    s.RevisionCount,
		At:          time.Now().UTC(),
	})
}

// AddMessage appends a transcript entry.
func (s *Session) AddMessage(role, content string, phase Phase) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Phase: phase, At: time.Now().UTC()})
}

// UserMessages returns the user side of the transcript in order.
func (s *Session) UserMessages() []string {
	var out []string
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			out = append(out, m.Content)
		}
	}
	return out
}

// Delivered reports whether the session holds a merged result that is not
// waiting on the user.
func (s *Session) Delivered() bool {
	return s.Blueprint != nil && !s.AwaitingUser
}

// Suspended reports whether the session holds a merged result and waits on answers
// to its open questions.
func (s *Session) Suspended() bool {
	return s.Blueprint != nil && s.AwaitingUser
}

// Reset returns a copy with every expert slot, the revision counter, the last pattern
// and the suspension cleared. Without keepRequirements the captured requirements,
// constraints, conflicts and priorities go too. The transcript is cut back to the
// initial message; the change log is kept and records the reset.
func (s *Session) Reset(keepRequirements bool) *Session {
	c := s.Clone()
	c.RevisionCount = 0
	c.LastPattern = ""
	c.LowConfidenceReason = ReasonNone
	c.AwaitingUser = false
	c.Shortlist = nil
	c.Generated = nil
	c.Critique = nil
	c.CostOps = nil
	c.Blueprint = nil
	c.OpenQuestions = nil
	c.LastDecision = nil

	if !keepRequirements {
		c.Requirements = []string{}
		c.Constraints = nil
		c.Conflicts = nil
		c.Ranking = nil
		c.Profile = ""
	}

	for _, m := range c.Messages {
		if m.Role == RoleUser {
			c.Messages = []Message{m}
			break
		}
	}

	desc := "session reset"
	if keepRequirements {
		desc += ", requirements kept"
	}
	c.AppendChange("user", desc)
	c.UpdatedAt = time.Now().UTC()
	return c
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Requirements = slices.Clone(s.Requirements)
	c.Ranking = slices.Clone(s.Ranking)
	c.Constraints = slices.Clone(s.Constraints)
	c.Conflicts = cloneConflicts(s.Conflicts)
	c.Shortlist = s.Shortlist.Clone()
	c.Generated = cloneExpertOutputPtr(s.Generated)
	if s.Critique != nil {
		cr := cloneCritique(*s.Critique)
		c.Critique = &cr
	}
	if s.CostOps != nil {
		co := *s.CostOps
		co.CostDrivers = slices.Clone(co.CostDrivers)
		co.CostReducers = slices.Clone(co.CostReducers)
		co.OverEngineering = slices.Clone(co.OverEngineering)
		co.Risks = slices.Clone(co.Risks)
		c.CostOps = &co
	}
	if s.Blueprint != nil {
		bp := *s.Blueprint
		bp.ExpertOutput = cloneExpertOutput(bp.ExpertOutput)
		bp.Roadmap = make([]RoadmapPhase, len(s.Blueprint.Roadmap))
		for i, p := range s.Blueprint.Roadmap {
			bp.Roadmap[i] = RoadmapPhase{Phase: p.Phase, Tasks: slices.Clone(p.Tasks)}
		}
		if s.Blueprint.Roadmap == nil {
			bp.Roadmap = nil
		}
		bp.ADRs = slices.Clone(bp.ADRs)
		bp.Assumptions = slices.Clone(bp.Assumptions)
		bp.Dissent = slices.Clone(bp.Dissent)
		c.Blueprint = &bp
	}
	c.OpenQuestions = slices.Clone(s.OpenQuestions)
	c.Messages = slices.Clone(s.Messages)
	if s.LastDecision != nil {
		d := *s.LastDecision
		c.LastDecision = &d
	}
	c.ChangeLog = slices.Clone(s.ChangeLog)
	return &c
}

func cloneExpertOutput(o ExpertOutput) ExpertOutput {
	o.KeyDecisions = slices.Clone(o.KeyDecisions)
	o.TechStack = slices.Clone(o.TechStack)
	o.Risks = slices.Clone(o.Risks)
	o.Unknowns = slices.Clone(o.Unknowns)
	return o
}

func cloneExpertOutputPtr(o *ExpertOutput) *ExpertOutput {
	if o == nil {
		return nil
	}
	c := cloneExpertOutput(*o)
	return &c
}

func cloneCritique(c CritiqueOutput) CritiqueOutput {
	c.ExpertOutput = cloneExpertOutput(c.ExpertOutput)
	c.Issues = slices.Clone(c.Issues)
	c.Fixes = slices.Clone(c.Fixes)
	c.Questions = slices.Clone(c.Questions)
	c.FailureModes = slices.Clone(c.FailureModes)
	return c
}

func cloneConflicts(in []Conflict) []Conflict {
	if in == nil {
		return nil
	}
	out := make([]Conflict, len(in))
	for i, c := range in {
		out[i] = Conflict{
			Requirements: slices.Clone(c.Requirements),
			Explanation:  c.Explanation,
			Compromises:  slices.Clone(c.Compromises),
		}
	}
	return out
}
