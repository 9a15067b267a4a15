// ABOUTME: Main entry point for the recall tracker HTTP server
// ABOUTME: Loads config, opens storage, and serves the API with the reminder scheduler
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/recall-tracker/internal/app"
	"github.com/harper/recall-tracker/internal/config"
	"github.com/harper/recall-tracker/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	a, err := app.New(cfg, zlog)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Serve(ctx); err != nil {
		zlog.Error("server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
}
