package domain

// Phase is a step of the recommendation workflow.
type Phase string

const (
	PhaseIntake     Phase = "intake"
	PhasePriority   Phase = "priority"
	PhaseConflict   Phase = "conflict"
	PhaseDeepDive   Phase = "deep_dive"
	PhaseGenerate   Phase = "generate"
	PhaseCritique   Phase = "critique"
	PhaseCostOps    Phase = "cost_ops"
	PhaseSynthesize Phase = "synthesize"
	PhaseGate       Phase = "gate"
)

// Phases lists every phase in workflow order.
var Phases = []Phase{
	PhaseIntake, PhasePriority, PhaseConflict, PhaseDeepDive,
	PhaseGenerate, PhaseCritique, PhaseCostOps, PhaseSynthesize, PhaseGate,
}

// Outcome is the result of one ContinueSession call as seen by the application.
type Outcome string

const (
	OutcomeDelivered    Outcome = "delivered"
	OutcomeAwaitingUser Outcome = "awaitingUser"
	OutcomeError        Outcome = "error"
)

// GateOutcome is the verdict of the final gate.
type GateOutcome string

const (
	GateTerminal     GateOutcome = "terminal"
	GateAwaitingUser GateOutcome = "awaiting_user"
	GateRetry        GateOutcome = "retry"
)

// Valid reports whether o is a recognized gate verdict.
func (o GateOutcome) Valid() bool {
	switch o {
	case GateTerminal, GateAwaitingUser, GateRetry:
		return true
	}
	return false
}

// GateReason names the gate rule that fired.
type GateReason string

const (
	GateReasonNoResult        GateReason = "no_merged_result"
	GateReasonBestEffort      GateReason = "accept_best_effort"
	GateReasonNoImprovement   GateReason = "no_structural_improvement"
	GateReasonAccept          GateReason = "accept"
	GateReasonWithAssumptions GateReason = "accept_with_assumptions"
	GateReasonNeedsInfo       GateReason = "missing_information"
	GateReasonRetry           GateReason = "retry_with_new_input"
)

// Decision is the recorded verdict of one gate evaluation.
type Decision struct {
	Outcome    GateOutcome `json:"outcome"`
	Reason     GateReason  `json:"reason"`
	Confidence float64     `json:"confidence"`
	Revision   int         `json:"revision"`
	Pattern    string      `json:"pattern,omitempty"`
	// Err is set only for rule 1 (no merged result).
	Err string `json:"error,omitempty"`
}
