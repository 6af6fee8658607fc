package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/blueprint"
	api "github.com/aretw0/blueprint/pkg/adapters/http"
	"github.com/aretw0/blueprint/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves recommendation sessions over a JSON API described by /openapi.yaml.
Prometheus metrics are exposed at /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.HTTP.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}

			eng, err := a.engine(ctx, metrics.Hooks())
			if err != nil {
				return err
			}
			sessions, closeStore, err := a.sessions()
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			handler, err := api.NewHandler(eng, sessions,
				api.WithLogger(a.logger),
				api.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
				api.WithVersion(blueprint.Version),
			)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.HTTP.Port),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			serverErrors := make(chan error, 1)
			go func() {
				a.logger.Info("http server listening", "address", srv.Addr, "store", a.cfg.Store.Driver)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				return err
			case <-ctx.Done():
				a.logger.Info("shutting down http server")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
				}
				if err := <-serverErrors; !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on (overrides http.port)")
	return cmd
}
