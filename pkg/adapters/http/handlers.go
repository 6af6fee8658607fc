package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/aretw0/blueprint/internal/presentation/graph"
	"github.com/aretw0/blueprint/internal/presentation/reply"
	"github.com/aretw0/blueprint/internal/sanitizer"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Turn is the response to a session turn.
type Turn struct {
	SessionID   string         `json:"session_id"`
	Outcome     domain.Outcome `json:"outcome"`
	Reply       string         `json:"reply"`
	Revision    int            `json:"revision"`
	ProjectName string         `json:"project_name,omitempty"`

	// Changes is what the turn added or changed; omitted when nothing did.
	Changes *domain.SessionDiff `json:"changes,omitempty"`
}

const defaultBlueprintLimit = 10

type messageRequest struct {
	Message string `json:"message"`
}

type resetRequest struct {
	KeepRequirements *bool `json:"keep_requirements"`
}

type shortlistRequest struct {
	Ranking     []domain.Criterion  `json:"ranking"`
	Constraints []domain.Constraint `json:"constraints"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "blueprint-http",
		"version":     s.version,
		"api_version": "0.1.0",
	})
}

func (s *Server) listPatterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"patterns": s.engine.Patterns()})
}

func (s *Server) shortlist(w http.ResponseWriter, r *http.Request) {
	var body shortlistRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sl, err := s.engine.Shortlist(body.Ranking, body.Constraints)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("shortlist failed", "err", err)
		writeError(w, http.StatusInternalServerError, "shortlist failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shortlist": sl})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("list sessions failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids, "count": len(ids)})
}

// BlueprintSummary is one entry of the delivered-blueprint listing.
type BlueprintSummary struct {
	SessionID   string    `json:"session_id"`
	ProjectName string    `json:"project_name,omitempty"`
	Pattern     string    `json:"pattern"`
	Confidence  float64   `json:"confidence"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// listBlueprints returns the most recently updated delivered blueprints.
func (s *Server) listBlueprints(w http.ResponseWriter, r *http.Request) {
	limit := defaultBlueprintLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.logger.Error("list sessions failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list blueprints")
		return
	}
	out := []BlueprintSummary{}
	for _, id := range ids {
		sess, err := s.sessions.Load(r.Context(), id)
		if err != nil {
			// Deleted between List and Load.
			if errors.Is(err, domain.ErrSessionNotFound) {
				continue
			}
			s.logger.Error("load session failed", "session_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "failed to list blueprints")
			return
		}
		if !sess.Delivered() {
			continue
		}
		out = append(out, BlueprintSummary{
			SessionID:   sess.ID,
			ProjectName: sess.ProjectName,
			Pattern:     sess.Blueprint.RecommendedPattern,
			Confidence:  sess.Blueprint.Confidence,
			UpdatedAt:   sess.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"blueprints": out, "count": len(out)})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.readMessage(w, r)
	if !ok {
		return
	}
	sess, err := s.engine.StartSession(r.Context(), msg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sessions.Save(r.Context(), sess.ID, sess); err != nil {
		s.logger.Error("save session failed", "session_id", sess.ID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to save session")
		return
	}
	s.turn(w, r, sess.ID, "", http.StatusCreated)
}

func (s *Server) continueSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.load(w, r, id); !ok {
		return
	}
	msg, ok := s.readMessage(w, r)
	if !ok {
		return
	}
	s.turn(w, r, id, msg, http.StatusOK)
}

// turn runs one engine turn under the session lock and persists the result.
func (s *Server) turn(w http.ResponseWriter, r *http.Request, id, msg string, okStatus int) {
	var (
		outcome domain.Outcome
		text    string
		turnErr error
		before  *domain.Session
	)
	next, err := s.sessions.Update(r.Context(), id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		var n *domain.Session
		before = cur
		n, outcome, text, turnErr = s.engine.ContinueSession(ctx, cur, msg)
		return n, nil
	})
	if err != nil {
		s.logger.Error("session update failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to update session")
		return
	}

	status := okStatus
	if outcome == domain.OutcomeError {
		s.logger.Error("turn failed", "session_id", id, "err", turnErr)
		status = http.StatusBadGateway
	}
	writeJSON(w, status, Turn{
		SessionID:   id,
		Outcome:     outcome,
		Reply:       text,
		Revision:    next.RevisionCount,
		ProjectName: next.ProjectName,
		Changes:     domain.Diff(before, next),
	})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.load(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.load(w, r, id); !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.logger.Error("delete session failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getBlueprint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.load(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !sess.Delivered() {
		writeError(w, http.StatusNotFound, "blueprint not yet delivered; continue the conversation to generate one")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":   sess.ID,
		"project_name": sess.ProjectName,
		"blueprint":    sess.Blueprint,
		"markdown":     reply.Compose(sess, domain.OutcomeDelivered),
	})
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.load(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.WorkflowMermaid(graph.OverlayFor(sess))))
}

func (s *Server) resetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.load(w, r, id); !ok {
		return
	}
	keep := true
	var body resetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.KeepRequirements != nil {
			keep = *body.KeepRequirements
		}
	}

	next, err := s.sessions.Update(r.Context(), id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.ResetSession(cur, keep), nil
	})
	if err != nil {
		s.logger.Error("reset session failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        next.ID,
		"kept_requirements": keep,
		"requirements":      len(next.Requirements),
	})
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, id string) (*domain.Session, bool) {
	sess, err := s.sessions.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return nil, false
		}
		s.logger.Error("load session failed", "session_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return sess, true
}

func (s *Server) readMessage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return "", false
	}
	msg, err := sanitizer.Input(body.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return msg, true
}
