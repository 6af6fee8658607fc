package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/blueprint"
	"github.com/aretw0/blueprint/internal/presentation/tui"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newChatCmd(a *app) *cobra.Command {
	var (
		resume  string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "chat [description]",
		Short: "Describe a project and get an architecture blueprint",
		Long: `Starts an interactive session. Answer the follow-up questions until a blueprint
is delivered. Type /reset to start over with the captured requirements,
/new to discard them, and exit or quit to leave. Sessions are saved and can be
resumed with --session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if offline {
				a.cfg.Capabilities.Offline = true
			}
			ctx := cmd.Context()
			eng, err := a.engine(ctx, domain.LifecycleHooks{})
			if err != nil {
				return err
			}
			sessions, closeStore, err := a.sessions()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			out := cmd.OutOrStdout()
			styled, width := terminal(out)
			render, err := tui.NewRenderer(styled, width)
			if err != nil {
				return err
			}
			if styled {
				tui.PrintBanner(out)
			}

			c := &chat{
				engine:   eng,
				sessions: sessions,
				in:       bufio.NewScanner(cmd.InOrStdin()),
				out:      out,
				render:   render,
			}
			return c.run(ctx, resume, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&resume, "session", "", "Resume a saved session")
	cmd.Flags().BoolVar(&offline, "offline", false, "Use scripted capabilities instead of model providers")
	return cmd
}

// terminal reports whether w is a TTY and its width.
func terminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 0
	}
	return true, width
}

type chat struct {
	engine   *blueprint.Engine
	sessions *session.Manager
	in       *bufio.Scanner
	out      io.Writer
	render   func(string) (string, error)
}

func (c *chat) run(ctx context.Context, resume, initial string) error {
	id := resume
	if id != "" {
		s, err := c.sessions.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("loading session %q: %w", id, err)
		}
		fmt.Fprintf(c.out, "Resumed session %s (%d requirements).\n", s.ID, len(s.Requirements))
	} else {
		var err error
		if id, err = c.start(ctx, initial); err != nil {
			return err
		}
		if id == "" {
			return nil
		}
	}

	for {
		line, ok := c.prompt("> ")
		if !ok {
			break
		}
		switch line {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintf(c.out, "Session saved. Resume with: blueprint chat --session %s\n", id)
			return nil
		case "/reset", "/new":
			if err := c.reset(ctx, id, line == "/reset"); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Session reset. Describe the project again or add requirements.")
			continue
		}
		if err := c.turn(ctx, id, line); err != nil {
			return err
		}
	}
	return c.in.Err()
}

// start asks for a description when none was given and runs the first turn.
func (c *chat) start(ctx context.Context, initial string) (string, error) {
	for strings.TrimSpace(initial) == "" {
		fmt.Fprintln(c.out, "What are you building? Describe the project, its users and any constraints.")
		line, ok := c.prompt("> ")
		if !ok {
			return "", c.in.Err()
		}
		initial = line
	}

	s, err := c.engine.StartSession(ctx, initial)
	if err != nil {
		return "", err
	}
	if err := c.sessions.Save(ctx, s.ID, s); err != nil {
		return "", err
	}
	return s.ID, c.turn(ctx, s.ID, "")
}

func (c *chat) turn(ctx context.Context, id, msg string) error {
	var (
		outcome domain.Outcome
		text    string
		turnErr error
		before  *domain.Session
	)
	after, err := c.sessions.Update(ctx, id, func(ctx context.Context, cur *domain.Session) (*domain.Session, error) {
		var next *domain.Session
		before = cur
		next, outcome, text, turnErr = c.engine.ContinueSession(ctx, cur, msg)
		return next, nil
	})
	if err != nil {
		return err
	}
	if d := domain.Diff(before, after); d != nil && len(d.Requirements)+len(d.Constraints) > 0 {
		fmt.Fprintf(c.out, "Captured %d requirements and %d constraints.\n", len(d.Requirements), len(d.Constraints))
	}

	switch outcome {
	case domain.OutcomeDelivered:
		tui.Status(c.out, "Blueprint delivered", "#22c55e")
	case domain.OutcomeAwaitingUser:
		tui.Status(c.out, "Waiting for your answers", "#f59e0b")
	default:
		tui.Status(c.out, "Something went wrong", "#ef4444")
		if turnErr != nil && errors.Is(turnErr, domain.ErrConfiguration) {
			return turnErr
		}
	}
	rendered, err := c.render(text)
	if err != nil {
		rendered = text
	}
	fmt.Fprintln(c.out, rendered)
	return nil
}

func (c *chat) reset(ctx context.Context, id string, keep bool) error {
	_, err := c.sessions.Update(ctx, id, func(_ context.Context, cur *domain.Session) (*domain.Session, error) {
		return c.engine.ResetSession(cur, keep), nil
	})
	return err
}

func (c *chat) prompt(p string) (string, bool) {
	fmt.Fprint(c.out, p)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}
