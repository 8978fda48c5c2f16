package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/booksplit/internal/api"
	"github.com/dgallion1/booksplit/internal/config"
	"github.com/dgallion1/booksplit/internal/pathstore"
	"github.com/dgallion1/booksplit/internal/pipeline"
)

func newServeCommand(g *globals) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the split HTTP service",
		Long: `serve starts the HTTP API. Service settings come from the environment
(PORT, PATHSTORE_URL, BOOKSPLIT_API_KEY, WORKER_COUNT, ...); split options
come from --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if port != "" {
				cfg.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts, err := g.options()
			if err != nil {
				return err
			}
			log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), nil))
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, cfg, opts, log)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	return cmd
}

// Serve runs the API until ctx is cancelled, then shuts the listener down
// and stops the workers.
func Serve(ctx context.Context, cfg config.Config, opts config.Options, log *slog.Logger) error {
	var ps *pathstore.Client
	if cfg.Publishing() {
		ps = pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
		defer ps.Close()
	}

	orch := pipeline.NewOrchestrator(cfg, opts, ps, log)
	orch.Start(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewServer(orch, log, cfg),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting booksplit", "port", cfg.Port, "publishing", ps != nil)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		orch.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")

	// Stop accepting uploads before the queue closes.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	orch.Stop()
	return err
}
