package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/snowcore/pdm-cli/internal/api"
	"github.com/snowcore/pdm-cli/internal/metrics"
	"github.com/snowcore/pdm-cli/internal/monitoring"
	"github.com/snowcore/pdm-cli/internal/scoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scoring cycles in the background",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "server port (default from config)")
	serveCmd.Flags().Bool("no-cycle", false, "do not run scoring cycles in the background")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if err := cfg.Validate("serve"); err != nil {
		return err
	}
	noCycle, _ := cmd.Flags().GetBool("no-cycle")

	topo, err := scoring.LoadTopology(cfg.Scoring.TopologyFile)
	if err != nil {
		return err
	}
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	reg := metrics.DefaultRegistry()
	if !noCycle {
		runner, err := scoring.NewRunner(st, topo, cfg, reg)
		if err != nil {
			return err
		}
		go runner.Run(ctx)
	}
	if cfg.Monitoring.WebhookURL != "" {
		checker := monitoring.NewChecker(
			monitoring.NewCollector(st),
			monitoring.NewAlerter(cfg.Monitoring, reg),
			cfg.Monitoring,
		)
		go checker.Run(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(st, topo, cfg.Engine, reg, cfg.Server).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serveUntilDone(ctx, srv)
}

// serveUntilDone runs srv until ctx is cancelled, then shuts it down
// gracefully.
func serveUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}
