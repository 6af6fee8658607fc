package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		s := domain.NewSession(sessionID, time.Now().UTC())
		s.Requirements = append(s.Requirements, "serve 10k daily users")
		s.Ranking = []domain.Criterion{domain.CriterionCost, domain.CriterionScale}
		s.RevisionCount = 1
		s.LastPattern = "microservices"
		s.AwaitingUser = true
		s.AppendChange("gate", "retry with new input")
		s.Blueprint = &domain.Blueprint{
			ExpertOutput:     domain.ExpertOutput{RecommendedPattern: "modular_monolith", Confidence: 0.8},
			ExecutiveSummary: "ship a modular monolith",
		}

		require.NoError(t, store.Save(ctx, sessionID, s), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, s.Requirements, loaded.Requirements)
		assert.Equal(t, s.Ranking, loaded.Ranking)
		assert.Equal(t, 1, loaded.RevisionCount)
		assert.Equal(t, "microservices", loaded.LastPattern)
		assert.True(t, loaded.AwaitingUser)
		require.Len(t, loaded.ChangeLog, 1)
		assert.Equal(t, "gate", loaded.ChangeLog[0].Agent)
		require.NotNil(t, loaded.Blueprint)
		assert.Equal(t, "modular_monolith", loaded.Blueprint.RecommendedPattern)
		assert.InDelta(t, 0.8, loaded.Blueprint.Confidence, 1e-9)
	})

	t.Run("Saved copy is isolated", func(t *testing.T) {
		s := domain.NewSession(sessionID, time.Now().UTC())
		s.Requirements = append(s.Requirements, "original")
		require.NoError(t, store.Save(ctx, sessionID, s))

		s.Requirements[0] = "mutated"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "original", loaded.Requirements[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID, time.Now().UTC())))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, time.Now().UTC()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, time.Now().UTC()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
