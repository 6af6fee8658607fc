package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/blueprint"
	"github.com/aretw0/blueprint/internal/presentation/reply"
	api "github.com/aretw0/blueprint/pkg/adapters/http"
	"github.com/aretw0/blueprint/pkg/adapters/memory"
	"github.com/aretw0/blueprint/pkg/adapters/scripted"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler  http.Handler
	primary  *scripted.Capability
	fallback *scripted.Capability
	sessions *session.Manager
}

func newFixture(t *testing.T, opts ...api.Option) *fixture {
	t.Helper()
	f := &fixture{
		primary:  scripted.New("primary"),
		fallback: scripted.New("fallback"),
		sessions: session.NewManager(memory.NewStore()),
	}
	eng, err := blueprint.New(blueprint.WithCapabilities(f.primary, f.fallback))
	require.NoError(t, err)
	f.handler, err = api.NewHandler(eng, f.sessions, opts...)
	require.NoError(t, err)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t, api.WithVersion("1.2.3"))

	rr := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rr)["status"])

	rr = f.do(t, http.MethodGet, "/info", "")
	assert.Equal(t, "1.2.3", decode[map[string]string](t, rr)["version"])
}

func TestCreateSession_FullLifecycle(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/sessions", `{"message":"An online store for a small retailer"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	turn := decode[api.Turn](t, rr)
	assert.Equal(t, domain.OutcomeDelivered, turn.Outcome)
	assert.Contains(t, turn.Reply, "modular_monolith")
	require.NotEmpty(t, turn.SessionID)
	require.NotNil(t, turn.Changes)
	assert.Contains(t, turn.Changes.Requirements, "product catalog")
	require.NotNil(t, turn.Changes.Delivered)
	assert.True(t, *turn.Changes.Delivered)

	rr = f.do(t, http.MethodGet, "/sessions/"+turn.SessionID+"/blueprint", "")
	require.Equal(t, http.StatusOK, rr.Code)
	bp := decode[map[string]any](t, rr)
	assert.Contains(t, bp["markdown"], "# Recommended architecture")

	rr = f.do(t, http.MethodGet, "/sessions", "")
	list := decode[map[string]any](t, rr)
	assert.Equal(t, []any{turn.SessionID}, list["sessions"])

	rr = f.do(t, http.MethodGet, "/sessions/"+turn.SessionID+"/workflow", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "class delivered current;")

	rr = f.do(t, http.MethodPost, "/sessions/"+turn.SessionID+"/reset", `{"keep_requirements":false}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, false, decode[map[string]any](t, rr)["kept_requirements"])

	rr = f.do(t, http.MethodGet, "/sessions/"+turn.SessionID+"/blueprint", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "reset clears the blueprint")

	rr = f.do(t, http.MethodDelete, "/sessions/"+turn.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = f.do(t, http.MethodGet, "/sessions/"+turn.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateSession_ValidatesAgainstSpec(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/sessions", `{"message":"too short"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/sessions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, f.primary.TotalCalls())
}

func TestContinueSession(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/sessions/missing/messages", `{"message":"hello"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodPost, "/sessions/bad$id/messages", `{"message":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "path parameter pattern is enforced")

	s := domain.NewSession("s1", time.Now().UTC())
	s.Requirements = []string{"internal dashboards"}
	require.NoError(t, f.sessions.Save(t.Context(), "s1", s))

	rr = f.do(t, http.MethodGet, "/sessions/s1/blueprint", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "no blueprint before delivery")

	rr = f.do(t, http.MethodPost, "/sessions/s1/messages", `{"message":"we are three engineers"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, domain.OutcomeDelivered, decode[api.Turn](t, rr).Outcome)

	saved, err := f.sessions.Load(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"internal dashboards", "we are three engineers"}, saved.Requirements,
		"a session with requirements resumes at generate and folds the message in")
	require.Len(t, saved.Messages, 2)
	assert.Equal(t, "we are three engineers", saved.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, saved.Messages[1].Role)
}

func TestContinueSession_ExpertFailure(t *testing.T) {
	f := newFixture(t)
	f.primary.FailAlways(errors.New("provider down"))
	f.fallback.FailAlways(errors.New("provider down"))

	rr := f.do(t, http.MethodPost, "/sessions", `{"message":"Ticketing system for concerts"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	turn := decode[api.Turn](t, rr)
	assert.Equal(t, domain.OutcomeError, turn.Outcome)
	assert.Equal(t, reply.Apology, turn.Reply)

	saved, err := f.sessions.Load(t.Context(), turn.SessionID)
	require.NoError(t, err)
	require.Len(t, saved.Messages, 1, "no assistant reply is recorded for a failed turn")
	assert.Equal(t, domain.RoleUser, saved.Messages[0].Role)
}

func TestPatternsAndShortlist(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/patterns", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[map[string][]any](t, rr)["patterns"], 6)

	rr = f.do(t, http.MethodPost, "/shortlist", `{"ranking":["scale","reliability"],"constraints":[{"kind":"team","hard":true}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	sl := decode[map[string][]domain.ScoredPattern](t, rr)["shortlist"]
	require.NotEmpty(t, sl)
	for _, p := range sl {
		assert.NotEqual(t, "microservices", p.Name, "hard team constraint eliminates complexity > 80")
	}

	rr = f.do(t, http.MethodPost, "/shortlist", `{"ranking":["vibes"]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOpenAPIAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, api.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	rr := f.do(t, http.MethodGet, "/openapi.yaml", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, api.Spec(), rr.Body.Bytes())

	rr = f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContinueSession_RejectsBlankMessage(t *testing.T) {
	f := newFixture(t)
	s := domain.NewSession("s1", time.Now().UTC())
	s.Requirements = []string{"internal dashboards"}
	require.NoError(t, f.sessions.Save(t.Context(), "s1", s))

	for _, body := range []string{`{"message":"   "}`, `{"message":"\n\t"}`} {
		rr := f.do(t, http.MethodPost, "/sessions/s1/messages", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Equal(t, 0, f.primary.TotalCalls()+f.fallback.TotalCalls())
}

func TestListBlueprints(t *testing.T) {
	f := newFixture(t)
	now := time.Now().UTC()

	pending := domain.NewSession("pending", now)
	pending.Requirements = []string{"a chat app"}
	require.NoError(t, f.sessions.Save(t.Context(), "pending", pending))

	for i, id := range []string{"older", "newer"} {
		s := domain.NewSession(id, now)
		s.ProjectName = "shop-" + id
		s.Blueprint = &domain.Blueprint{ExpertOutput: domain.ExpertOutput{RecommendedPattern: "modular_monolith", Confidence: 0.8}}
		s.UpdatedAt = now.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.sessions.Save(t.Context(), id, s))
	}

	suspended := domain.NewSession("suspended", now)
	suspended.Blueprint = &domain.Blueprint{}
	suspended.AwaitingUser = true
	require.NoError(t, f.sessions.Save(t.Context(), "suspended", suspended))

	rr := f.do(t, http.MethodGet, "/blueprints", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Blueprints []api.BlueprintSummary `json:"blueprints"`
		Count      int                    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count, "only delivered sessions are listed")
	require.Len(t, body.Blueprints, 2)
	assert.Equal(t, "newer", body.Blueprints[0].SessionID)
	assert.Equal(t, "shop-newer", body.Blueprints[0].ProjectName)
	assert.Equal(t, "modular_monolith", body.Blueprints[0].Pattern)
	assert.InDelta(t, 0.8, body.Blueprints[0].Confidence, 1e-9)

	rr = f.do(t, http.MethodGet, "/blueprints?limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.InDelta(t, 1, decode[map[string]any](t, rr)["count"], 0)

	rr = f.do(t, http.MethodGet, "/blueprints?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
