package events

import (
	"context"
	"time"

	"yoyaku/pkg/kafka"
	kafka_config "yoyaku/pkg/kafka/config"
	kafka_middleware "yoyaku/pkg/kafka/middleware"
	"yoyaku/pkg/logger"
	"yoyaku/pkg/model"
)

const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationCancelled = "reservation.cancelled"

	source = "yoyaku"
)

// ReservationEvent is the lifecycle record journaled for each reservation
// state change.
type ReservationEvent struct {
	Type          string                  `json:"type"`
	ReservationID string                  `json:"reservation_id"`
	Name          string                  `json:"name"`
	LineUserID    string                  `json:"line_user_id,omitempty"`
	DesiredDate   time.Time               `json:"desired_date"`
	Status        model.ReservationStatus `json:"status"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// Publisher journals reservation lifecycle events. Publishing is best-effort:
// callers log failures and proceed, a booking never fails because the journal
// is down.
type Publisher interface {
	PublishReservationEvent(ctx context.Context, eventType string, reservation *model.Reservation) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	metrics  *kafka_middleware.Metrics
	log      *logger.Logger
}

// NewPublisher returns a kafka-backed publisher, or a no-op publisher when no
// brokers are configured.
func NewPublisher(cfg *kafka_config.Config, log *logger.Logger) (Publisher, error) {
	if !cfg.Enabled() {
		log.Info("event journal disabled, no kafka brokers configured")
		return &noopPublisher{}, nil
	}

	producer, err := kafka.NewProducer(cfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQTopic)
	if err != nil {
		return nil, err
	}
	metrics := kafka_middleware.NewMetrics()
	producer.Use(kafka_middleware.MetricsProducerMiddleware(metrics))
	producer.Use(kafka_middleware.LoggingProducerMiddleware(log))

	return &kafkaPublisher{producer: producer, metrics: metrics, log: log}, nil
}

func (p *kafkaPublisher) PublishReservationEvent(ctx context.Context, eventType string, reservation *model.Reservation) error {
	event := ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		Name:          reservation.Name,
		LineUserID:    reservation.LineUserID,
		DesiredDate:   reservation.DesiredDate,
		Status:        reservation.Status,
		OccurredAt:    time.Now().UTC(),
	}

	msg := kafka.NewMessage().
		WithKey(reservation.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSource(source).
		Build()

	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	p.metrics.LogSnapshot(p.log)
	return p.producer.Close()
}

type noopPublisher struct{}

func (noopPublisher) PublishReservationEvent(ctx context.Context, eventType string, reservation *model.Reservation) error {
	return nil
}

func (noopPublisher) Close() error { return nil }
