package domain

import (
	"slices"
)

// SessionDiff describes what one turn changed in a session.
// It is serialized with the turn so clients can show progress without reloading.
type SessionDiff struct {
	SessionID string `json:"session_id"`

	// Requirements and Constraints hold entries that were not present before.
	Requirements []string     `json:"requirements,omitempty"`
	Constraints  []Constraint `json:"constraints,omitempty"`

	// Pattern is set when the merged result recommends a different pattern.
	Pattern *string `json:"pattern,omitempty"`

	Revision     *int  `json:"revision,omitempty"`
	AwaitingUser *bool `json:"awaiting_user,omitempty"`
	Delivered    *bool `json:"delivered,omitempty"`
}

// Diff calculates the difference between before and after.
// A nil before yields the whole of after. It returns nil when nothing changed.
func Diff(before, after *Session) *SessionDiff {
	if after == nil {
		return nil
	}
	if before == nil {
		before = &Session{}
	}

	d := &SessionDiff{
		SessionID:    after.ID,
		Requirements: added(before.Requirements, after.Requirements),
		Constraints:  added(before.Constraints, after.Constraints),
	}
	if p := recommended(after); p != "" && !SamePattern(p, recommended(before)) {
		d.Pattern = &p
	}
	if before.RevisionCount != after.RevisionCount {
		d.Revision = &after.RevisionCount
	}
	if before.AwaitingUser != after.AwaitingUser {
		d.AwaitingUser = &after.AwaitingUser
	}
	if delivered := after.Delivered(); before.Delivered() != delivered {
		d.Delivered = &delivered
	}

	if d.IsEmpty() {
		return nil
	}
	return d
}

func recommended(s *Session) string {
	if s.Blueprint == nil {
		return ""
	}
	return s.Blueprint.RecommendedPattern
}

func added[T comparable](before, after []T) []T {
	var out []T
	for _, v := range after {
		if !slices.Contains(before, v) {
			out = append(out, v)
		}
	}
	return out
}

// IsEmpty checks if the diff contains any changes.
func (d *SessionDiff) IsEmpty() bool {
	return len(d.Requirements) == 0 &&
		len(d.Constraints) == 0 &&
		d.Pattern == nil &&
		d.Revision == nil &&
		d.AwaitingUser == nil &&
		d.Delivered == nil
}
