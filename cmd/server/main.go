package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/booksplit/internal/cli"
	"github.com/dgallion1/booksplit/internal/config"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	opts := config.DefaultOptions()
	if cfg.SplitConfig != "" {
		loaded, err := config.LoadOptions(cfg.SplitConfig)
		if err != nil {
			log.Error("invalid split config", "path", cfg.SplitConfig, "error", err)
			os.Exit(1)
		}
		opts = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Serve(ctx, cfg, opts, log); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
