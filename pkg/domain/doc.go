/*
Package domain contains the core domain models of the Blueprint engine.

It defines the session Context that is threaded through every workflow phase, the
pattern and shortlist types produced by the scoring engine, the structured shapes
returned by expert transforms, and the closed enumerations (phases, outcomes, reasons)
the orchestrator and the gate reason about. This package is kept pure and free of
I/O, persistence or provider concerns.

# Key Entities

  - Context: The single mutable record of a session (requirements, priorities, slots, change log).
  - PatternCandidate: A named architecture pattern with per-criterion fitness scores.
  - ScoredPattern: A candidate ranked by the scoring engine for the current Context.
  - ExpertOutput, CritiqueOutput, CostOpsOutput, Blueprint: Structured expert results.
  - Decision: The gate's verdict (Terminal, AwaitingUser or Retry) and its reason.
*/
package domain
