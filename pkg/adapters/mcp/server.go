// Package mcp exposes recommendation sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/blueprint/internal/logging"
	"github.com/aretw0/blueprint/internal/presentation/reply"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const patternsURI = "blueprint://patterns"

// TurnResult is the structured output of a session turn.
type TurnResult struct {
	SessionID string              `json:"session_id" jsonschema_description:"Session to pass to continue_session"`
	Outcome   domain.Outcome      `json:"outcome" jsonschema_description:"delivered, awaitingUser or error"`
	Reply     string              `json:"reply" jsonschema_description:"Markdown reply for the user"`
	Revision  int                 `json:"revision"`
	Changes   *domain.SessionDiff `json:"changes,omitempty" jsonschema_description:"What this turn added or changed"`
}

type startArgs struct {
	Message string `json:"message"`
}

type continueArgs struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type resetArgs struct {
	SessionID        string `json:"session_id"`
	KeepRequirements *bool  `json:"keep_requirements"`
}

// Engine defines what the MCP server needs from the recommendation engine.
type Engine interface {
	StartSession(ctx context.Context, initialMessage string) (*domain.Session, error)
	ContinueSession(ctx context.Context, s *domain.Session, userMessage string) (*domain.Session, domain.Outcome, string, error)
	ResetSession(s *domain.Session, keepRequirements bool) *domain.Session
	Patterns() []domain.PatternCandidate
}

// Server wraps the engine and a session manager as an MCP server.
type Server struct {
	engine    Engine
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP server named blueprint-mcp.
func NewServer(engine Engine, sessions *session.Manager, version string, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		logger:   logging.NewNop(),
		mcpServer: server.NewMCPServer("blueprint-mcp", version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin and stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start an architecture recommendation session from a project description."),
		mcp.WithString("message", mcp.Required(), mcp.Description("What the user wants to build")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("continue_session",
		mcp.WithDescription("Answer open questions or add requirements to an existing session."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's reply")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleContinue))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard the current recommendation and start over."),
		mcp.WithString("session_id", mcp.Required()),
		mcp.WithBoolean("keep_requirements", mcp.Description("Keep captured requirements (default true)")),
	), s.handleReset)

	s.mcpServer.AddTool(mcp.NewTool("get_blueprint",
		mcp.WithDescription("Get the delivered blueprint of a session as markdown."),
		mcp.WithString("session_id", mcp.Required()),
	), s.handleBlueprint)

	s.mcpServer.AddTool(mcp.NewTool("list_patterns",
		mcp.WithDescription("List the architecture patterns the engine chooses from."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := json.Marshal(s.engine.Patterns())
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args startArgs) (TurnResult, error) {
	sess, err := s.engine.StartSession(ctx, args.Message)
	if err != nil {
		return TurnResult{}, err
	}
	if err := s.sessions.Save(ctx, sess.ID, sess); err != nil {
		return TurnResult{}, fmt.Errorf("saving session: %w", err)
	}
	return s.turn(ctx, sess.ID, "")
}

func (s *Server) handleContinue(ctx context.Context, _ mcp.CallToolRequest, args continueArgs) (TurnResult, error) {
	if _, err := s.sessions.Load(ctx, args.SessionID); err != nil {
		return TurnResult{}, err
	}
	return s.turn(ctx, args.SessionID, args.Message)
}

// turn runs one engine turn under the session lock. An error outcome is still
// reported as a result so the caller sees the apology.
func (s *Server) turn(ctx context.Context, id, msg string) (TurnResult, error) {
	var (
		outcome domain.Outcome
		text    string
		turnErr error
		before  *domain.Session
	)
	next, err := s.sessions.Update(ctx, id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		var n *domain.Session
		before = cur
		n, outcome, text, turnErr = s.engine.ContinueSession(ctx, cur, msg)
		return n, nil
	})
	if err != nil {
		return TurnResult{}, err
	}
	if turnErr != nil {
		s.logger.ErrorContext(ctx, "turn failed", "session_id", id, "err", turnErr)
	}
	return TurnResult{SessionID: id, Outcome: outcome, Reply: text, Revision: next.RevisionCount, Changes: domain.Diff(before, next)}, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args resetArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.sessions.Load(ctx, args.SessionID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keep := args.KeepRequirements == nil || *args.KeepRequirements
	next, err := s.sessions.Update(ctx, args.SessionID, func(_ context.Context, cur *domain.Session) (*domain.Session, error) {
		return s.engine.ResetSession(cur, keep), nil
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("session %s reset; %d requirements kept", next.ID, len(next.Requirements))), nil
}

func (s *Server) handleBlueprint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.sessions.Load(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError("session not found"), nil
	}
	if err != nil {
		return nil, err
	}
	if !sess.Delivered() {
		return mcp.NewToolResultError("blueprint not yet delivered"), nil
	}
	return mcp.NewToolResultText(reply.Compose(sess, domain.OutcomeDelivered)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(patternsURI, "Architecture patterns",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Patterns())
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: patternsURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
