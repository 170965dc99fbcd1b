// Command auditconsumer materializes the Kafka audit topic into PostgreSQL.
// Offsets are committed only after a batch is stored, so a restart replays
// at most the last uncommitted batch and the store ignores entries it has
// already seen.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"claimguard/internal/audit"
	"claimguard/internal/platform/config"
	"claimguard/internal/platform/kafka"
	"claimguard/internal/platform/logger"
	"claimguard/internal/platform/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("auditconsumer exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		return err
	}

	client, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Info("audit consumer started",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.ConsumerGroup,
		"brokers", cfg.Kafka.Brokers,
	)
	err = audit.NewMaterializer(client, audit.NewPostgresStore(db), log).Run(ctx)
	log.Info("audit consumer stopped")
	return err
}
