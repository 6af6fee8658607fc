/*
Package blueprint recommends a software architecture for a project described in plain language.

It runs a multi-expert workflow over a single session context: intake, priority ranking,
conflict detection and a deep dive build up the requirements; a deterministic scoring engine
shortlists candidate patterns; a primary model proposes an architecture; critique and
cost/operations experts review it concurrently; a synthesis merges everything into a
blueprint; and a final gate decides whether to deliver, ask the user, or retry with new input.

The engine is stateless across calls. Everything needed to resume lives in *domain.Session,
which the caller persists between turns (see pkg/session for a locking manager and the
store adapters).

# Usage

	eng, err := blueprint.New(
		blueprint.WithCapabilities(primary, fallback),
		blueprint.WithLogger(logger),
	)
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.StartSession(ctx, "We need a booking platform for 40 clinics")
	if err != nil {
		log.Fatal(err)
	}

	s, outcome, reply, err := eng.ContinueSession(ctx, s, "")
	if err != nil {
		logger.Error("turn failed", "err", err) // reply already holds a user-safe message
	}
	fmt.Println(outcome, reply)

# Outcomes

ContinueSession returns domain.OutcomeDelivered with the rendered blueprint,
domain.OutcomeAwaitingUser with the questions to answer, or domain.OutcomeError with a fixed
apology and the last committed session. Capability and invariant failures never escape as a
bare error without a session to keep.
*/
package blueprint
