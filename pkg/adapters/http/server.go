// Package http exposes sessions over a REST API.
//
// Requests are validated against the embedded OpenAPI document before they reach a
// handler; the same document is served at /openapi.yaml.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/blueprint/internal/logging"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/session"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed openapi.yaml
var spec []byte

// Spec returns the embedded OpenAPI document.
func Spec() []byte { return spec }

// Engine defines what the server needs from the recommendation engine.
type Engine interface {
	StartSession(ctx context.Context, initialMessage string) (*domain.Session, error)
	ContinueSession(ctx context.Context, s *domain.Session, userMessage string) (*domain.Session, domain.Outcome, string, error)
	ResetSession(s *domain.Session, keepRequirements bool) *domain.Session
	Shortlist(ranking []domain.Criterion, constraints []domain.Constraint) (domain.Shortlist, error)
	Patterns() []domain.PatternCandidate
}

// Server holds the handler dependencies.
type Server struct {
	engine   Engine
	sessions *session.Manager
	logger   *slog.Logger
	metrics  http.Handler
	version  string
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewHandler creates the HTTP handler. It fails only if the embedded document is invalid.
func NewHandler(engine Engine, sessions *session.Manager, opts ...Option) (http.Handler, error) {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	validate, err := requestValidator(s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, enableCORS, validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/patterns", s.listPatterns)
	r.Post("/shortlist", s.shortlist)
	r.Get("/blueprints", s.listBlueprints)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.continueSession)
			r.Get("/blueprint", s.getBlueprint)
			r.Get("/workflow", s.getWorkflow)
			r.Post("/reset", s.resetSession)
		})
	})
	return r, nil
}

// requestValidator rejects requests that do not match the OpenAPI document.
// Paths the document does not describe pass through to the router.
func requestValidator(logger *slog.Logger) (func(http.Handler) http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("loading openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("building openapi router: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					writeError(w, http.StatusMethodNotAllowed, "method not allowed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    &openapi3filter.Options{MultiError: false},
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "err", err)
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
