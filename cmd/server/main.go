package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/branchd-dev/adminconsole/internal/config"
	"github.com/branchd-dev/adminconsole/internal/logger"
	"github.com/branchd-dev/adminconsole/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The server defaults to JSON at info; the console defaults are for humans
	level, format := cfg.Logging.Level, cfg.Logging.Format
	if os.Getenv("LOG_LEVEL") == "" {
		level = "info"
	}
	if os.Getenv("LOG_FORMAT") == "" {
		format = "json"
	}
	log := logger.Init(level, format, os.Stdout)

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Msg("Starting admin API server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
