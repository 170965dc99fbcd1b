package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"claimguard/internal/platform/config"
	"claimguard/internal/platform/httpserver"
	"claimguard/internal/platform/logger"
)

const (
	shutdownGrace = 15 * time.Second
	auditDrain    = 10 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("claimguard exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close(log)

	log.Info("starting claimguard",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"postgres", app.db != nil,
		"redis", app.redis != nil,
		"kafka", app.kafka != nil,
		"auto_disposition", app.settings.Lifecycle.AutoDisposition,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.publisher.Run(gctx)
	})
	g.Go(func() error {
		return httpserver.Run(gctx, httpserver.New(cfg.Addr, app.router), shutdownGrace, log)
	})
	runErr := g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), auditDrain)
	defer cancel()
	if err := app.publisher.Close(drainCtx); err != nil {
		log.Error("audit publisher did not drain", "pending", app.publisher.Pending(), "error", err)
		runErr = errors.Join(runErr, err)
	}
	return runErr
}
