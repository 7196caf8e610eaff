package main

import (
	"context"
	"time"

	"yoyaku/internal/line"
	"yoyaku/internal/reminder"
	"yoyaku/internal/reservations/repository"
	"yoyaku/pkg/config"

	"github.com/joho/godotenv"
)

const JobName = "yoyaku-reminder"

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := config.Load(JobName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting reminder job", "lookahead", cfg.ReminderLookahead)

	gateway := line.NewGateway(cfg.LineAPIBaseURL, cfg.LineChannelAccessToken, cfg.Log)
	repo := repository.NewMongoReservationRepository(cfg)

	sweeper := reminder.NewSweeper(repo, gateway, cfg)
	sent, err := sweeper.Run(ctx)
	if err != nil {
		cfg.Log.Fatal("Reminder job failed", "error", err)
	}

	cfg.Log.Info("Reminder job finished", "sent", sent)
}
