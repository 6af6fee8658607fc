package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a session lock. Releasing a lock whose lease already expired
// must not free a newer holder.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns on one session across replicas. The session
// manager holds the lock for the whole load, run and save of a turn so two replicas
// never commit competing attempts for the same session.
type DistributedLocker interface {
	// Lock blocks until the lock for the session ID is held or ctx is done. The lease
	// lapses after ttl so a crashed replica cannot wedge the session.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
