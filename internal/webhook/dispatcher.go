package webhook

import (
	"context"

	"yoyaku/internal/line"
	"yoyaku/internal/reservations/service"
	"yoyaku/pkg/config"
	apperrors "yoyaku/pkg/errors"
	"yoyaku/pkg/logger"
)

// Trigger phrases. Matching is exact and case-sensitive: anything else is
// silently ignored so the bot never replies to ordinary conversation.
const (
	TriggerBookSession     = "book a counseling session"
	TriggerShowReservation = "reservation confirm"
	TriggerAskCancel       = "cancel confirm"
	TriggerConfirmCancel   = "confirm cancellation"

	ReplyNoReservation = "no reservation found"
	ReplyCancelled     = "Your reservation has been cancelled."
	ReplyWelcome       = "Thanks for adding us!\n" +
		"Send \"book a counseling session\" to get the booking form.\n" +
		"Send \"reservation confirm\" to review your current booking."
)

// Dispatcher routes inbound chat events. It is stateless per turn: every
// trigger phrase resolves the conversation context from the store, so no
// session storage exists anywhere.
type Dispatcher struct {
	reservations service.ReservationService
	gateway      line.Gateway
	cfg          *config.Config
	log          *logger.Logger
}

func NewDispatcher(reservations service.ReservationService, gateway line.Gateway, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		reservations: reservations,
		gateway:      gateway,
		cfg:          cfg,
		log:          cfg.Log,
	}
}

// Dispatch processes a webhook batch. Events are handled independently and
// best-effort: one failing event never aborts its siblings. The returned
// error is nil unless every event in a non-empty batch failed.
func (d *Dispatcher) Dispatch(ctx context.Context, events []line.Event) error {
	if len(events) == 0 {
		return nil
	}

	failures := 0
	for _, event := range events {
		if err := d.dispatchEvent(ctx, event); err != nil {
			failures++
			d.log.Error("failed to handle webhook event",
				"type", event.Type,
				"line_user_id", event.Source.UserID,
				"error", err,
			)
		}
	}

	if failures == len(events) {
		return apperrors.Internal("all webhook events failed", nil)
	}
	return nil
}

func (d *Dispatcher) dispatchEvent(ctx context.Context, event line.Event) error {
	switch event.Type {
	case line.EventTypeMessage:
		return d.handleMessage(ctx, event)
	case line.EventTypeFollow:
		return d.handleFollow(ctx, event)
	default:
		d.log.Debug("ignoring webhook event", "type", event.Type)
		return nil
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, event line.Event) error {
	if event.Message == nil || event.Message.Type != line.MessageTypeText {
		return nil
	}

	switch event.Message.Text {
	case TriggerBookSession:
		return d.sendBookingForm(ctx, event.ReplyToken)
	case TriggerShowReservation:
		return d.showReservation(ctx, event)
	case TriggerAskCancel:
		return d.askCancelConfirmation(ctx, event.ReplyToken)
	case TriggerConfirmCancel:
		return d.cancelReservation(ctx, event)
	default:
		// Ordinary conversation, no reply
		return nil
	}
}

func (d *Dispatcher) handleFollow(ctx context.Context, event line.Event) error {
	return d.gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(ReplyWelcome))
}

func (d *Dispatcher) sendBookingForm(ctx context.Context, replyToken string) error {
	form := line.NewButtonsMessage(
		"Book a counseling session",
		"Counseling booking",
		"Open the form below to pick a date and tell us what you would like to discuss.",
		line.URIAction("Open booking form", d.cfg.LiffURL),
	)
	return d.gateway.Reply(ctx, replyToken, form)
}

func (d *Dispatcher) showReservation(ctx context.Context, event line.Event) error {
	reservation, err := d.reservations.LatestForUser(ctx, event.Source.UserID)
	if err != nil {
		if isNotFound(err) {
			return d.gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(ReplyNoReservation))
		}
		return err
	}

	return d.gateway.Reply(ctx, event.ReplyToken, line.ReservationDetailFlex(reservation))
}

func (d *Dispatcher) askCancelConfirmation(ctx context.Context, replyToken string) error {
	prompt := line.NewButtonsMessage(
		"Cancel your reservation?",
		"Cancel reservation",
		"Are you sure you want to cancel? This cannot be undone.",
		line.MessageAction("Yes, cancel it", TriggerConfirmCancel),
	)
	return d.gateway.Reply(ctx, replyToken, prompt)
}

func (d *Dispatcher) cancelReservation(ctx context.Context, event line.Event) error {
	_, err := d.reservations.CancelLatestForUser(ctx, event.Source.UserID)
	if err != nil {
		if isNotFound(err) {
			return d.gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(ReplyNoReservation))
		}
		return err
	}

	return d.gateway.Reply(ctx, event.ReplyToken, line.NewTextMessage(ReplyCancelled))
}

func isNotFound(err error) bool {
	appErr := apperrors.AsAppError(err)
	return appErr.Code == apperrors.CodeNotFound
}
