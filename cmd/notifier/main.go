package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamestore-labs/gamestore/internal/config"
	"github.com/gamestore-labs/gamestore/internal/domain"
	"github.com/gamestore-labs/gamestore/internal/messaging"
	"github.com/gamestore-labs/gamestore/internal/notifier"
	"github.com/gamestore-labs/gamestore/internal/telemetry"
)

const (
	serviceName    = "gamestore-notifier"
	serviceVersion = "0.1.0"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if len(cfg.KafkaBrokers) == 0 {
		logger.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, serviceVersion, os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	handler := notifier.NewHandler(notifier.NewSimulatedSender(logger), logger)

	placed := messaging.NewConsumer(cfg.KafkaBrokers, domain.TopicOrderPlaced, cfg.ConsumerGroup)
	defer func() { _ = placed.Close() }()

	paid := messaging.NewConsumer(cfg.KafkaBrokers, domain.TopicOrderPaid, cfg.ConsumerGroup)
	defer func() { _ = paid.Close() }()

	logger.Info("notifier consuming",
		"brokers", cfg.KafkaBrokers,
		"group", cfg.ConsumerGroup,
		"topics", []string{domain.TopicOrderPlaced, domain.TopicOrderPaid},
	)

	errCh := make(chan error, 2)
	go func() { errCh <- placed.Consume(ctx, handler.HandleOrderPlaced) }()
	go func() { errCh <- paid.Consume(ctx, handler.HandleOrderPaid) }()

	err = <-errCh
	cancel()
	<-errCh

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("notifier shut down")
}
