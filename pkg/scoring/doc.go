// Package scoring ranks architecture patterns for a session.
//
// Scoring is pure integer arithmetic over the knowledge base: a weighted sum of the
// per-criterion fitness scores, followed by constraint-driven deltas or eliminations,
// sorted descending with ties broken by declaration order. Identical inputs always
// produce an identical Shortlist.
package scoring
