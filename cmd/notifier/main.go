package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"yoyaku/internal/line"
	"yoyaku/internal/notifier"
	"yoyaku/pkg/config"
	"yoyaku/pkg/kafka"
	kafka_config "yoyaku/pkg/kafka/config"
	kafka_middleware "yoyaku/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "yoyaku-notifier"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()

	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Fatal("Notifier requires kafka brokers to be configured")
	}
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}

	gateway := line.NewGateway(cfg.LineAPIBaseURL, cfg.LineChannelAccessToken, cfg.Log)
	worker := notifier.New(gateway, cfg.AdminLineUserID, cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		kafkaCfg.ReservationEventsTopic,
		kafkaCfg.NotifierGroupID,
		kafkaCfg.ReservationEventsDLQTopic,
		worker.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize consumer", "error", err)
	}
	metrics := kafka_middleware.NewMetrics()
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware(metrics))
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Starting staff notifier",
		"topic", kafkaCfg.ReservationEventsTopic,
		"group", kafkaCfg.NotifierGroupID,
	)

	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		cfg.Log.Error("Consumer stopped unexpectedly", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	metrics.LogSnapshot(cfg.Log)
	cfg.Log.Info("Notifier stopped")
}
