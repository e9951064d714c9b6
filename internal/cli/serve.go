package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/UnknownOlympus/pinpoint/internal/httpapi"
	"github.com/UnknownOlympus/pinpoint/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the operator HTTP API and the monitoring server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			return serve(ctx, a)
		},
	}
}

// serve runs both servers until ctx is canceled or one of them fails.
func serve(ctx context.Context, a *app) error {
	router := chi.NewRouter()
	httpapi.New(
		a.log,
		a.resolver,
		a.store,
		a.overrides,
		a.scanner,
		a.regeocoder,
		a.registry.Blocklist(),
		httpapi.RegeocodeDefaults{
			ProviderOrder: a.cfg.Regeocode.ProviderOrder,
			Delay:         a.cfg.Regeocode.Delay,
			AllowWrite:    a.cfg.Regeocode.AllowWrite,
		},
	).Register(router)

	readTimeout := 5
	api := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(readTimeout) * time.Second,
		// No write timeout: a regeocode request runs for as long as its report is long.
	}
	monitor := newMonitoringServer(ctx, a)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.InfoContext(ctx, "Starting API server", "port", a.cfg.Port)
		return listen(api)
	})
	g.Go(func() error {
		a.log.InfoContext(ctx, "Starting monitoring server", "port", a.cfg.MetricsPort)
		return listen(monitor)
	})
	g.Go(func() error {
		<-gctx.Done()
		a.log.InfoContext(ctx, "Shutdown signal received. Stopping servers...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		return errors.Join(api.Shutdown(shutdownCtx), monitor.Shutdown(shutdownCtx))
	})

	err := g.Wait()
	a.log.InfoContext(ctx, "Servers stopped", "error", err)

	return err
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server on %s failed: %w", server.Addr, err)
	}

	return nil
}

// newMonitoringServer returns a server with health check and metrics endpoints.
// The health check pings the cache backend when it has a connection to check.
func newMonitoringServer(ctx context.Context, a *app) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		a.log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if pinger, ok := a.store.(repository.Pinger); ok {
			if err := pinger.Ping(req.Context()); err != nil {
				a.log.WarnContext(ctx, "Cache backend ping failed", "error", err)
				status, body = http.StatusServiceUnavailable, "cache ping failed"
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			a.log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		a.log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))

	readTimeout := 5
	writeTimeout := 10

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.MetricsPort),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
}
