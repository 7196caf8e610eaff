package main

import (
	"yoyaku/internal/events"
	"yoyaku/internal/line"
	reservationhandler "yoyaku/internal/reservations/handler"
	"yoyaku/internal/reservations/repository"
	"yoyaku/internal/reservations/service"
	"yoyaku/internal/reservations/validator"
	"yoyaku/internal/webhook"
	"yoyaku/pkg/app"
	"yoyaku/pkg/config"
	kafka_config "yoyaku/pkg/kafka/config"

	"github.com/joho/godotenv"
)

const ServiceName = "yoyaku-server"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}
	cfg.LogConfiguration()
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting reservation server")

	kafkaCfg := kafka_config.Load()
	if kafkaCfg.Enabled() {
		if err := kafkaCfg.Validate(); err != nil {
			cfg.Log.Fatal("Invalid kafka configuration", "error", err)
		}
	}

	publisher, err := events.NewPublisher(kafkaCfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}()

	reservationService, gateway := initServices(cfg, publisher)

	dispatcher := webhook.NewDispatcher(reservationService, gateway, cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg,
		reservationhandler.NewReservationHandler(reservationService, cfg.Log),
		webhook.NewHandler(dispatcher, cfg.Log),
		line.SignatureVerifier(cfg.LineChannelSecret),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (service.ReservationService, line.Gateway) {
	gateway := line.NewGateway(cfg.LineAPIBaseURL, cfg.LineChannelAccessToken, cfg.Log)
	identity := line.NewIdentityProvider(cfg.LineAPIBaseURL, cfg.Log)

	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewSlotLockRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		reservationValidator,
		identity,
		gateway,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized", "database", cfg.MongoDatabaseName)
	return reservationService, gateway
}
