package ports

import (
	"context"

	"github.com/aretw0/blueprint/pkg/domain"
)

// SessionStore defines the interface for persisting session contexts between calls.
// The engine itself never performs I/O; the surrounding application owns the store.
type SessionStore interface {
	// Save persists the session under its ID.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
