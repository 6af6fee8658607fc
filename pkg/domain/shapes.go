package domain

import (
	"errors"
	"fmt"
)

// Severity tags a risk or failure mode.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Impact tags an unresolved unknown.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

func (i Impact) Valid() bool {
	switch i {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// Band is a qualitative cost or operations level.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

func (b Band) Valid() bool {
	switch b {
	case BandLow, BandMedium, BandHigh:
		return true
	}
	return false
}

// LowConfidenceReason explains why a critique judged confidence insufficient.
type LowConfidenceReason string

const (
	ReasonNone                   LowConfidenceReason = ""
	ReasonMissingInfo            LowConfidenceReason = "missing_info"
	ReasonConflictingConstraints LowConfidenceReason = "conflicting_constraints"
	ReasonWeakJustification      LowConfidenceReason = "weak_justification"
	ReasonWrongPattern           LowConfidenceReason = "wrong_pattern"
	ReasonRisksAcknowledged      LowConfidenceReason = "risks_acknowledged"
)

// Valid reports whether r is empty or a recognized reason.
func (r LowConfidenceReason) Valid() bool {
	switch r {
	case ReasonNone, ReasonMissingInfo, ReasonConflictingConstraints,
		ReasonWeakJustification, ReasonWrongPattern, ReasonRisksAcknowledged:
		return true
	}
	return false
}

type TechChoice struct {
	Layer      string `json:"layer"`
	Technology string `json:"technology"`
	Reason     string `json:"reason"`
}

type Risk struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

type Unknown struct {
	Description string `json:"description"`
	Impact      Impact `json:"impact"`
}

// ExpertOutput is the common shape every architecture expert returns.
type ExpertOutput struct {
	Summary            string       `json:"summary"`
	RecommendedPattern string       `json:"recommended_pattern"`
	KeyDecisions       []string     `json:"key_decisions"`
	TechStack          []TechChoice `json:"tech_stack"`
	Risks              []Risk       `json:"risks"`
	Unknowns           []Unknown    `json:"unknowns"`
	Diagram            string       `json:"diagram,omitempty"`
	CostBand           Band         `json:"cost_band"`
	OpsBand            Band         `json:"ops_band"`
	Confidence         float64      `json:"confidence"`
}

// Validate checks bounds and enumerations of the common shape.
func (o *ExpertOutput) Validate() error {
	var errs []error
	if o.Summary == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	if o.RecommendedPattern == "" {
		errs = append(errs, errors.New("recommended_pattern is empty"))
	}
	if n := len(o.KeyDecisions); n < 3 || n > 7 {
		errs = append(errs, fmt.Errorf("key_decisions must have 3-7 entries, got %d", n))
	}
	errs = append(errs, validateRisks(o.Risks)...)
	for i, u := range o.Unknowns {
		if !u.Impact.Valid() {
			errs = append(errs, fmt.Errorf("unknowns[%d]: invalid impact %q", i, u.Impact))
		}
	}
	errs = append(errs, validateBands(o.CostBand, o.OpsBand)...)
	if err := validateConfidence(o.Confidence); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type Question struct {
	Question     string `json:"question"`
	WhyItMatters string `json:"why_it_matters"`
}

type FailureMode struct {
	Failure    string   `json:"failure"`
	Severity   Severity `json:"severity"`
	Mitigation string   `json:"mitigation"`
}

// CritiqueOutput extends ExpertOutput with review findings.
type CritiqueOutput struct {
	ExpertOutput
	Issues              []string            `json:"issues"`
	Fixes               []string            `json:"fixes"`
	Questions           []Question          `json:"questions"`
	FailureModes        []FailureMode       `json:"failure_modes"`
	LowConfidenceReason LowConfidenceReason `json:"low_confidence_reason,omitempty"`
}

func (o *CritiqueOutput) Validate() error {
	errs := []error{o.ExpertOutput.Validate()}
	if len(o.Issues) > 10 {
		errs = append(errs, fmt.Errorf("issues must have at most 10 entries, got %d", len(o.Issues)))
	}
	if len(o.Questions) > 5 {
		errs = append(errs, fmt.Errorf("questions must have at most 5 entries, got %d", len(o.Questions)))
	}
	if len(o.FailureModes) > 5 {
		errs = append(errs, fmt.Errorf("failure_modes must have at most 5 entries, got %d", len(o.FailureModes)))
	}
	for i, f := range o.FailureModes {
		if !f.Severity.Valid() {
			errs = append(errs, fmt.Errorf("failure_modes[%d]: invalid severity %q", i, f.Severity))
		}
	}
	if !o.LowConfidenceReason.Valid() {
		errs = append(errs, fmt.Errorf("invalid low_confidence_reason %q", o.LowConfidenceReason))
	}
	return errors.Join(errs...)
}

// CostOpsOutput is restricted to cost and operations findings.
type CostOpsOutput struct {
	Summary         string   `json:"summary"`
	CostBand        Band     `json:"cost_band"`
	OpsBand         Band     `json:"ops_band"`
	CostDrivers     []string `json:"cost_drivers"`
	CostReducers    []string `json:"cost_reducers"`
	TeamFit         string   `json:"team_fit"`
	TimeEstimate    string   `json:"time_estimate"`
	OverEngineering []string `json:"over_engineering"`
	Risks           []Risk   `json:"risks"`
	Confidence      float64  `json:"confidence"`
}

func (o *CostOpsOutput) Validate() error {
	var errs []error
	if o.Summary == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	errs = append(errs, validateBands(o.CostBand, o.OpsBand)...)
	errs = append(errs, validateRisks(o.Risks)...)
	if err := validateConfidence(o.Confidence); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

type RoadmapPhase struct {
	Phase string   `json:"phase"`
	Tasks []string `json:"tasks"`
}

// ADR is an architecture decision record.
type ADR struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Context      string `json:"context"`
	Decision     string `json:"decision"`
	Consequences string `json:"consequences"`
}

// Blueprint is the merged result produced by synthesis.
type Blueprint struct {
	ExpertOutput
	ExecutiveSummary string         `json:"executive_summary"`
	Roadmap          []RoadmapPhase `json:"roadmap"`
	ADRs             []ADR          `json:"adrs"`
	Assumptions      []string       `json:"assumptions"`
	Dissent          []string       `json:"dissent"`
}

func (b *Blueprint) Validate() error {
	errs := []error{b.ExpertOutput.Validate()}
	if b.ExecutiveSummary == "" {
		errs = append(errs, errors.New("executive_summary is empty"))
	}
	if len(b.Roadmap) == 0 {
		errs = append(errs, errors.New("roadmap must have at least one phase"))
	}
	if n := len(b.ADRs); n < 3 || n > 6 {
		errs = append(errs, fmt.Errorf("adrs must have 3-6 entries, got %d", n))
	}
	if n := len(b.Assumptions); n < 3 || n > 8 {
		errs = append(errs, fmt.Errorf("assumptions must have 3-8 entries, got %d", n))
	}
	return errors.Join(errs...)
}

// IntakeOutput captures the project from the conversation so far.
type IntakeOutput struct {
	ProjectName  string       `json:"project_name"`
	Summary      string       `json:"summary"`
	Requirements []string     `json:"requirements"`
	Constraints  []Constraint `json:"constraints"`
	Questions    []string     `json:"questions"`
	Confidence   float64      `json:"confidence"`
}

func (o *IntakeOutput) Validate() error {
	var errs []error
	if o.Summary == "" {
		errs = append(errs, errors.New("summary is empty"))
	}
	errs = append(errs, validateConstraints(o.Constraints)...)
	if err := validateConfidence(o.Confidence); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// PriorityOutput ranks the decision criteria.
type PriorityOutput struct {
	Profile    DecisionProfile `json:"profile,omitempty"`
	Ranking    []Criterion     `json:"ranking"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

func (o *PriorityOutput) Validate() error {
	var errs []error
	if o.Profile != "" && !o.Profile.Valid() {
		errs = append(errs, fmt.Errorf("invalid profile %q", o.Profile))
	}
	for i, c := range o.Ranking {
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("ranking[%d]: unknown criterion %q", i, c))
		}
	}
	if err := validateConfidence(o.Confidence); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ConflictOutput lists tensions between requirements.
type ConflictOutput struct {
	Conflicts []Conflict `json:"conflicts"`
	Coherence float64    `json:"coherence"`
}

func (o *ConflictOutput) Validate() error {
	if o.Coherence < 0 || o.Coherence > 1 {
		return fmt.Errorf("coherence %v out of range [0,1]", o.Coherence)
	}
	return nil
}

// DeepDiveOutput refines requirements before generation.
type DeepDiveOutput struct {
	Requirements []string     `json:"requirements"`
	Constraints  []Constraint `json:"constraints"`
	Questions    []string     `json:"questions"`
	Ready        bool         `json:"ready"`
}

func (o *DeepDiveOutput) Validate() error {
	return errors.Join(validateConstraints(o.Constraints)...)
}

func validateRisks(risks []Risk) []error {
	var errs []error
	for i, r := range risks {
		if !r.Severity.Valid() {
			errs = append(errs, fmt.Errorf("risks[%d]: invalid severity %q", i, r.Severity))
		}
	}
	return errs
}

func validateBands(cost, ops Band) []error {
	var errs []error
	if !cost.Valid() {
		errs = append(errs, fmt.Errorf("invalid cost_band %q", cost))
	}
	if !ops.Valid() {
		errs = append(errs, fmt.Errorf("invalid ops_band %q", ops))
	}
	return errs
}

func validateConstraints(cs []Constraint) []error {
	var errs []error
	for i, c := range cs {
		if !c.Kind.Valid() {
			errs = append(errs, fmt.Errorf("constraints[%d]: invalid kind %q", i, c.Kind))
		}
	}
	return errs
}

func validateConfidence(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("confidence %v out of range [0,1]", v)
	}
	return nil
}
