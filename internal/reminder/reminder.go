package reminder

import (
	"context"
	"time"

	"yoyaku/internal/line"
	"yoyaku/internal/reservations/repository"
	"yoyaku/pkg/config"
	"yoyaku/pkg/logger"
)

// Sweeper pushes reminder cards for confirmed reservations coming up within
// the configured lookahead window. It is designed to run as a scheduled
// one-shot job (cron); the sweep itself holds no state between runs.
type Sweeper struct {
	repo      repository.ReservationRepository
	gateway   line.Gateway
	lookahead time.Duration
	log       *logger.Logger
}

func NewSweeper(repo repository.ReservationRepository, gateway line.Gateway, cfg *config.Config) *Sweeper {
	return &Sweeper{
		repo:      repo,
		gateway:   gateway,
		lookahead: cfg.ReminderLookahead,
		log:       cfg.Log,
	}
}

// Run sends one reminder per upcoming reservation, best-effort. A failed push
// is logged and skipped; the remaining reservations still get their reminders.
// Returns the number of reminders successfully sent.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	until := now.Add(s.lookahead)

	reservations, err := s.repo.FindConfirmedBetween(ctx, now, until)
	if err != nil {
		s.log.Error("reminder sweep failed to load reservations", "error", err)
		return 0, err
	}

	s.log.Info("reminder sweep started",
		"window_start", now,
		"window_end", until,
		"candidates", len(reservations),
	)

	sent := 0
	for _, reservation := range reservations {
		if reservation.LineUserID == "" {
			s.log.Debug("skipping reservation without chat identity", "id", reservation.ID)
			continue
		}

		flex := line.ReminderFlex(reservation)
		if err := s.gateway.Push(ctx, reservation.LineUserID, flex); err != nil {
			s.log.Warn("failed to push reminder",
				"id", reservation.ID,
				"line_user_id", reservation.LineUserID,
				"error", err,
			)
			continue
		}
		sent++
	}

	s.log.Info("reminder sweep finished", "sent", sent, "candidates", len(reservations))
	return sent, nil
}
