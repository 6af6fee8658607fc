package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/blueprint"
	"github.com/aretw0/blueprint/pkg/adapters/mcp"
	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		transport string
		port      int
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes recommendation sessions as MCP tools so agents can run them.

Supported transports:
- stdio (default): standard input and output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := a.engine(cmd.Context(), domain.LifecycleHooks{})
			if err != nil {
				return err
			}
			sessions, closeStore, err := a.sessions()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			srv := mcp.NewServer(eng, sessions, blueprint.Version, mcp.WithLogger(a.logger))
			switch transport {
			case "stdio":
				a.logger.Info("starting mcp server (stdio)")
				return srv.ServeStdio()
			case "sse":
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				a.logger.Info("mcp server stopped")
				return nil
			default:
				return fmt.Errorf("unknown transport %q: supported are stdio and sse", transport)
			}
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport protocol: stdio or sse")
	cmd.Flags().IntVar(&port, "port", 8081, "Port to listen on (sse only)")
	return cmd
}
