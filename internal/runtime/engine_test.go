package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/blueprint/internal/runtime"
	"github.com/aretw0/blueprint/pkg/adapters/scripted"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/knowledge"
	"github.com/aretw0/blueprint/pkg/scoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fixture struct {
	primary  *scripted.Capability
	fallback *scripted.Capability
	engine   *runtime.Engine
}

func newFixture(t *testing.T, opts ...runtime.EngineOption) *fixture {
	t.Helper()
	f := &fixture{primary: scripted.New("primary"), fallback: scripted.New("fallback")}
	inv, err := expert.NewInvoker(f.primary, f.fallback)
	require.NoError(t, err)
	f.engine = runtime.NewEngine(inv, scoring.New(knowledge.Builtin()), opts...)
	return f
}

func newSession() *domain.Session {
	return domain.NewSession("run-test", time.Now().UTC())
}

func TestRun_FreshSessionDelivers(t *testing.T) {
	var mu sync.Mutex
	var phases []domain.Phase
	hooks := domain.LifecycleHooks{
		OnPhaseEnter: func(ctx context.Context, e *domain.PhaseEvent) {
			mu.Lock()
			defer mu.Unlock()
			phases = append(phases, e.Phase)
		},
	}
	f := newFixture(t, runtime.WithLifecycleHooks(hooks))

	in := newSession()
	res := f.engine.Run(context.Background(), in, "I need an online store for a small retailer")

	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeDelivered, res.Outcome)
	assert.Equal(t, domain.PhaseIntake, res.Entry)
	require.NotNil(t, res.Decision)
	assert.Equal(t, domain.GateReasonAccept, res.Decision.Reason)

	s := res.Session
	assert.Equal(t, "Online Store", s.ProjectName)
	assert.Contains(t, s.Requirements, "shopping cart")
	assert.Contains(t, s.Requirements, "order history for customers")
	assert.Equal(t, domain.ProfileMVPFast, s.Profile)
	require.NotNil(t, s.Blueprint)
	assert.Equal(t, "modular_monolith", s.Blueprint.RecommendedPattern)
	assert.NotEmpty(t, s.Shortlist)
	assert.Equal(t, 0, s.RevisionCount)
	assert.Empty(t, s.LastPattern)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, domain.RoleUser, s.Messages[0].Role)

	assert.Empty(t, in.Requirements, "input session must not be mutated")
	assert.Empty(t, in.Messages)

	// Critique and CostOps run concurrently, so only their relative position is fixed.
	require.Len(t, phases, 9)
	assert.Equal(t, []domain.Phase{domain.PhaseIntake, domain.PhasePriority, domain.PhaseConflict, domain.PhaseDeepDive, domain.PhaseGenerate}, phases[:5])
	assert.ElementsMatch(t, []domain.Phase{domain.PhaseCritique, domain.PhaseCostOps}, phases[5:7])
	assert.Equal(t, []domain.Phase{domain.PhaseSynthesize, domain.PhaseGate}, phases[7:])

	agents := make([]string, 0, len(s.ChangeLog))
	for _, c := range s.ChangeLog {
		agents = append(agents, c.Agent)
	}
	assert.Contains(t, agents, "intake")
	assert.Contains(t, agents, "synthesize")
}

func TestRun_RetryWithDifferentPattern(t *testing.T) {
	f := newFixture(t)
	f.fallback.On(expert.ShapeCritique, scripted.Payload(expert.ShapeCritique, map[string]any{
		"confidence": 0.3, "low_confidence_reason": "wrong_pattern", "issues": []string{"team too small for microservices"},
	}))
	f.primary.On(expert.ShapeBlueprint,
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"recommended_pattern": "microservices", "confidence": 0.3}),
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"recommended_pattern": "serverless", "confidence": 0.8}),
	)

	res := f.engine.Run(context.Background(), newSession(), "build me a store")

	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeDelivered, res.Outcome)
	assert.Equal(t, domain.GateReasonAccept, res.Decision.Reason)
	assert.Equal(t, 1, res.Session.RevisionCount)
	assert.Equal(t, "microservices", res.Session.LastPattern)
	assert.Equal(t, "serverless", res.Session.Blueprint.RecommendedPattern)
	assert.Equal(t, 2, f.primary.Calls(expert.ShapeExpert))
	assert.Equal(t, 2, f.primary.Calls(expert.ShapeBlueprint))
}

func TestRun_RetryReproducingPatternTerminates(t *testing.T) {
	f := newFixture(t)
	f.fallback.On(expert.ShapeCritique, scripted.Payload(expert.ShapeCritique, map[string]any{
		"confidence": 0.2, "low_confidence_reason": "weak_justification",
	}))
	f.primary.On(expert.ShapeBlueprint, scripted.Payload(expert.ShapeBlueprint, map[string]any{
		"recommended_pattern": "Microservices", "confidence": 0.2,
	}))

	res := f.engine.Run(context.Background(), newSession(), "build me a store")

	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeDelivered, res.Outcome)
	assert.Equal(t, domain.GateReasonNoImprovement, res.Decision.Reason)
	assert.Equal(t, 1, res.Session.RevisionCount)
	assert.Equal(t, 2, f.primary.Calls(expert.ShapeBlueprint))
}

func TestRun_RevisionsNeverExceedCap(t *testing.T) {
	f := newFixture(t)
	f.fallback.On(expert.ShapeCritique, scripted.Payload(expert.ShapeCritique, map[string]any{
		"confidence": 0.1, "low_confidence_reason": "wrong_pattern",
	}))
	f.primary.On(expert.ShapeBlueprint,
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"recommended_pattern": "microservices", "confidence": 0.1}),
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"recommended_pattern": "serverless", "confidence": 0.1}),
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"recommended_pattern": "cqrs", "confidence": 0.1}),
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"recommended_pattern": "monolith", "confidence": 0.1}),
	)

	res := f.engine.Run(context.Background(), newSession(), "build me a store")

	require.NoError(t, res.Err)
	assert.Equal(t, domain.GateReasonBestEffort, res.Decision.Reason)
	assert.Equal(t, 2, res.Session.RevisionCount)
	assert.Equal(t, 3, f.primary.Calls(expert.ShapeBlueprint))
}

func TestRun_MissingInfoSuspendsThenResumes(t *testing.T) {
	f := newFixture(t)
	f.fallback.On(expert.ShapeCritique, scripted.Payload(expert.ShapeCritique, map[string]any{
		"confidence":            0.3,
		"low_confidence_reason": "missing_info",
		"questions":             []map[string]string{{"question": "How many daily users?", "why_it_matters": "sizing"}},
	}))
	f.primary.On(expert.ShapeBlueprint,
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"confidence": 0.3}),
		scripted.Payload(expert.ShapeBlueprint, map[string]any{"confidence": 0.85}),
	)

	first := f.engine.Run(context.Background(), newSession(), "build me a store")
	require.NoError(t, first.Err)
	assert.Equal(t, domain.OutcomeAwaitingUser, first.Outcome)
	assert.True(t, first.Session.AwaitingUser)
	assert.Equal(t, 0, first.Session.RevisionCount)
	require.Len(t, first.Session.OpenQuestions, 1)
	assert.Equal(t, 1, f.primary.Calls(expert.ShapeExpert), "awaiting user never re-enters generate")

	second := f.engine.Run(context.Background(), first.Session, "about 2000")
	require.NoError(t, second.Err)
	assert.Equal(t, domain.PhaseGenerate, second.Entry)
	assert.Equal(t, domain.OutcomeDelivered, second.Outcome)
	assert.False(t, second.Session.AwaitingUser)
	assert.Empty(t, second.Session.OpenQuestions)
	assert.Contains(t, second.Session.Requirements, `Answer to "How many daily users?": about 2000`)
	assert.Equal(t, 0, second.Session.RevisionCount)
	assert.Equal(t, 1, f.fallback.Calls(expert.ShapeIntake), "early phases are skipped on resume")
}

func TestRun_BlankReplyWhileAwaitingUserRunsNothing(t *testing.T) {
	f := newFixture(t)
	f.fallback.On(expert.ShapeCritique, scripted.Payload(expert.ShapeCritique, map[string]any{
		"confidence":            0.3,
		"low_confidence_reason": "missing_info",
		"questions":             []map[string]string{{"question": "Which regions must be served?"}},
	}))
	f.primary.On(expert.ShapeBlueprint, scripted.Payload(expert.ShapeBlueprint, map[string]any{"confidence": 0.3}))

	first := f.engine.Run(context.Background(), newSession(), "a video platform")
	require.NoError(t, first.Err)
	require.Equal(t, domain.OutcomeAwaitingUser, first.Outcome)
	calls := f.primary.TotalCalls() + f.fallback.TotalCalls()

	for _, blank := range []string{"", "   ", "\n\t"} {
		res := f.engine.Run(context.Background(), first.Session, blank)
		require.NoError(t, res.Err)
		assert.Equal(t, domain.OutcomeAwaitingUser, res.Outcome)
		assert.True(t, res.Session.AwaitingUser)
		assert.Equal(t, first.Session.OpenQuestions, res.Session.OpenQuestions)
		assert.Len(t, res.Session.ChangeLog, len(first.Session.ChangeLog))
		assert.Len(t, res.Session.Messages, len(first.Session.Messages))
		assert.Equal(t, first.Session.Requirements, res.Session.Requirements)
		require.NotNil(t, res.Decision)
		assert.Equal(t, domain.GateReasonNeedsInfo, res.Decision.Reason)
	}
	assert.Equal(t, calls, f.primary.TotalCalls()+f.fallback.TotalCalls(), "no capability is called")
}

func TestRun_HardFailureCommitsNothingFromFailedPhase(t *testing.T) {
	f := newFixture(t)
	f.primary.FailNext(expert.ShapeBlueprint, 1)

	res := f.engine.Run(context.Background(), newSession(), "build me a store")

	assert.Equal(t, domain.OutcomeError, res.Outcome)
	assert.Equal(t, domain.PhaseSynthesize, res.FailedPhase)
	assert.ErrorIs(t, res.Err, domain.ErrCapability)
	require.NotNil(t, res.Session)
	assert.NotNil(t, res.Session.Generated, "phases before the failure stay committed")
	assert.NotNil(t, res.Session.Critique)
	assert.Nil(t, res.Session.Blueprint)
	assert.Nil(t, res.Decision)
	assert.Equal(t, 0, f.fallback.Calls(expert.ShapeBlueprint), "hard dependency never falls back")

	// The next invocation resumes at Critique with the committed proposal.
	assert.Equal(t, domain.PhaseCritique, runtime.ResolveEntry(res.Session))
	again := f.engine.Run(context.Background(), res.Session, "")
	require.NoError(t, again.Err)
	assert.Equal(t, domain.OutcomeDelivered, again.Outcome)
	assert.Equal(t, 1, f.primary.Calls(expert.ShapeExpert))
}

func TestRun_FailureInFirstPhaseLeavesInputUntouched(t *testing.T) {
	f := newFixture(t)
	f.primary.FailAlways(nil)

	in := newSession()
	in.Requirements = []string{"store for 10 users"}

	res := f.engine.Run(context.Background(), in, "also needs invoices")

	assert.Equal(t, domain.OutcomeError, res.Outcome)
	assert.Equal(t, domain.PhaseGenerate, res.FailedPhase)
	assert.Equal(t, in, res.Session)
	assert.NotSame(t, in, res.Session)
}

func TestRun_SoftFailureLeavesSlotEmpty(t *testing.T) {
	f := newFixture(t)
	f.fallback.FailNext(expert.ShapeCostOps, 2)

	res := f.engine.Run(context.Background(), newSession(), "build me a store")

	require.NoError(t, res.Err)
	assert.Equal(t, domain.OutcomeDelivered, res.Outcome)
	assert.Nil(t, res.Session.CostOps)
	assert.NotNil(t, res.Session.Critique)
	assert.Equal(t, 2, f.fallback.Calls(expert.ShapeCostOps))

	var skipped bool
	for _, c := range res.Session.ChangeLog {
		if c.Agent == "cost_ops" && c.Description == "skipped: expert unavailable after fallback" {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestRun_FanOutIsConcurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	var wg sync.WaitGroup
	wg.Add(2)
	concurrent := make(chan bool, 2)
	f.fallback.OnCall(func(ctx context.Context, shape string) {
		if shape != expert.ShapeCritique && shape != expert.ShapeCostOps {
			return
		}
		wg.Done()
		both := make(chan struct{})
		go func() { wg.Wait(); close(both) }()
		select {
		case <-both:
			concurrent <- true
		case <-time.After(2 * time.Second):
			concurrent <- false
		}
	})

	res := f.engine.Run(context.Background(), newSession(), "build me a store")
	require.NoError(t, res.Err)
	assert.True(t, <-concurrent)
	assert.True(t, <-concurrent)
	assert.NotNil(t, res.Session.Critique)
	assert.NotNil(t, res.Session.CostOps)
}

func TestRun_UnknownCriterionIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	in := newSession()
	in.Requirements = []string{"anything"}
	in.Ranking = []domain.Criterion{"speed"}

	res := f.engine.Run(context.Background(), in, "")

	assert.Equal(t, domain.OutcomeError, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrConfiguration)
	assert.Equal(t, 0, f.primary.TotalCalls())
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.engine.Run(ctx, newSession(), "hello")
	assert.Equal(t, domain.OutcomeError, res.Outcome)
	assert.ErrorIs(t, res.Err, context.Canceled)
}
