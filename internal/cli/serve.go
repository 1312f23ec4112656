package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/folio/internal/transport"
	"github.com/mesh-intelligence/folio/pkg/types"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace over HTTP",
		Long:  "Serve the workspace as a JSON API with Prometheus metrics on /metrics.",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().String("addr", "", "listen address (default: http_addr from config.yaml)")
	cmd.RunE = a.run(func(ctx context.Context, ws types.Workspace, args []string) error {
		if err := a.v.BindPFlag(cfgKeyHTTPAddr, cmd.Flags().Lookup("addr")); err != nil {
			return fmt.Errorf("bind addr flag: %w", err)
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, a.log, ws, a.v.GetString(cfgKeyHTTPAddr))
	})
	return cmd
}

// serve runs the HTTP server until ctx is done, then shuts it down.
func serve(ctx context.Context, log *zap.Logger, ws types.Workspace, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      transport.NewServer(ws, log).Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}
