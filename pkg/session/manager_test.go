package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/blueprint/pkg/adapters/memory"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/ports"
	"github.com/aretw0/blueprint/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke race conditions if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateSerializesWriters(t *testing.T) {
	mgr := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mgr.Update(ctx, id, func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
				s.Requirements = append(s.Requirements, "req")
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := mgr.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.Requirements, 20, "lost updates mean the lock is not held across load+save")
}

func TestManager_UpdateSavesOnFnError(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("attempt failed")

	out, err := mgr.Update(ctx, "s1", func(ctx context.Context, s *domain.Session) (*domain.Session, error) {
		s.Summary = "partially done"
		return s, boom
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, out)

	loaded, err := mgr.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "partially done", loaded.Summary)
}

func TestManager_LoadOrCreate(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := mgr.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	s, err := mgr.LoadOrCreate(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", s.ID)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	ttl      time.Duration
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(time.Minute))

	require.NoError(t, mgr.Save(context.Background(), "s1", domain.NewSession("s1", time.Now())))

	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	assert.Equal(t, time.Minute, locker.ttl)
}
