package notifier

import (
	"context"
	"fmt"

	"yoyaku/internal/events"
	"yoyaku/internal/line"
	"yoyaku/pkg/kafka"
	"yoyaku/pkg/logger"
)

// Notifier turns journaled reservation events into staff notifications. It
// runs as a consumer-group worker so the intake path never blocks on staff
// messaging.
type Notifier struct {
	gateway         line.Gateway
	adminLineUserID string
	log             *logger.Logger
}

func New(gateway line.Gateway, adminLineUserID string, log *logger.Logger) *Notifier {
	return &Notifier{
		gateway:         gateway,
		adminLineUserID: adminLineUserID,
		log:             log,
	}
}

// Handle implements the consumer message handler. Unknown event types are
// acknowledged without a notification so the topic can evolve ahead of this
// worker.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	var event events.ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("failed to decode reservation event: %w", err)
	}

	text, notify := n.renderNotification(event)
	if !notify {
		n.log.Debug("skipping event", "type", event.Type, "id", event.ReservationID)
		return nil
	}

	if n.adminLineUserID == "" {
		n.log.Warn("no admin user configured, dropping staff notification", "type", event.Type)
		return nil
	}

	if err := n.gateway.Push(ctx, n.adminLineUserID, line.NewTextMessage(text)); err != nil {
		return fmt.Errorf("failed to push staff notification: %w", err)
	}

	n.log.Info("staff notification sent", "type", event.Type, "id", event.ReservationID)
	return nil
}

func (n *Notifier) renderNotification(event events.ReservationEvent) (string, bool) {
	when := line.FormatDateTime(event.DesiredDate)

	switch event.Type {
	case events.TypeReservationCreated:
		return fmt.Sprintf("New booking: %s on %s (status: %s)", event.Name, when, event.Status), true
	case events.TypeReservationCancelled:
		return fmt.Sprintf("Booking cancelled: %s on %s", event.Name, when), true
	default:
		return "", false
	}
}
