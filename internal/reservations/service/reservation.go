package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"yoyaku/internal/events"
	"yoyaku/internal/line"
	reservationserrors "yoyaku/internal/reservations/errors"
	"yoyaku/internal/reservations/repository"
	"yoyaku/internal/reservations/validator"
	"yoyaku/pkg/config"
	apperrors "yoyaku/pkg/errors"
	"yoyaku/pkg/model"
	"yoyaku/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRequest is a booking submitted through the intake endpoint. The
// identity token comes from the embedded web form and is exchanged for a
// verified user identity before anything is stored.
type BookingRequest struct {
	Name          string
	Email         string
	DesiredDate   time.Time
	Content       string
	IdentityToken string
}

type ReservationService interface {
	Submit(ctx context.Context, req *BookingRequest) (*model.Reservation, error)
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error)
	LatestForUser(ctx context.Context, lineUserID string) (*model.Reservation, error)
	CancelLatestForUser(ctx context.Context, lineUserID string) (*model.Reservation, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	lockRepo  repository.SlotLockRepository
	validator *validator.ReservationValidator
	identity  line.IdentityProvider
	gateway   line.Gateway
	publisher events.Publisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	lockRepo repository.SlotLockRepository,
	validator *validator.ReservationValidator,
	identity line.IdentityProvider,
	gateway line.Gateway,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator,
		identity:  identity,
		gateway:   gateway,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Submit runs the full booking pipeline: validation, identity verification,
// slot conflict checking under an advisory lock and a transaction, then a
// best-effort confirmation push. The reservation stands even when the push
// fails.
func (s *reservationService) Submit(ctx context.Context, req *BookingRequest) (*model.Reservation, error) {
	reservation := &model.Reservation{
		Name:        sanitizer.NormalizeName(req.Name),
		Email:       sanitizer.TrimAndNormalize(req.Email),
		DesiredDate: req.DesiredDate.UTC().Truncate(time.Second),
		Content:     sanitizer.NormalizeFreeText(req.Content),
		Status:      s.initialStatus(),
	}

	if err := s.validate(reservation); err != nil {
		return nil, err
	}
	// The token is a required field like name and desired_date; its absence
	// is a validation failure, not an authentication one.
	if req.IdentityToken == "" {
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{
			"error": "identity_token is required",
		})
	}

	lineUserID, err := s.identity.Verify(ctx, req.IdentityToken)
	if err != nil {
		s.cfg.Log.Warn("Booking identity verification failed", "error", err)
		return nil, err
	}
	reservation.LineUserID = lineUserID

	// Advisory lock serializes concurrent submissions for the same slot
	lockID, err := s.acquireSlotLock(ctx, reservation.DesiredDate)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifySlotFree(sessCtx, reservation.DesiredDate); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, reservation); err != nil {
			if errors.Is(err, reservationserrors.ErrSlotTaken) {
				return slotTakenError(reservation.DesiredDate)
			}
			return apperrors.Internal("Failed to create reservation", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"line_user_id", reservation.LineUserID,
		"desired_date", reservation.DesiredDate,
		"status", reservation.Status,
	)

	s.publishEvent(ctx, events.TypeReservationCreated, reservation)
	if reservation.Status == model.StatusConfirmed {
		s.publishEvent(ctx, events.TypeReservationConfirmed, reservation)
	}

	s.pushConfirmation(ctx, reservation)

	return reservation, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// LatestForUser returns the user's most recent reservation, or a not-found
// error when they have none.
func (s *reservationService) LatestForUser(ctx context.Context, lineUserID string) (*model.Reservation, error) {
	if lineUserID == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	reservation, err := s.repo.FindLatestByLineUserID(ctx, lineUserID)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFound("Reservation")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

// CancelLatestForUser cancels the user's most recent reservation. Cancelling
// an already cancelled reservation is a no-op, not an error.
func (s *reservationService) CancelLatestForUser(ctx context.Context, lineUserID string) (*model.Reservation, error) {
	reservation, err := s.LatestForUser(ctx, lineUserID)
	if err != nil {
		return nil, err
	}

	if reservation.Status == model.StatusCancelled {
		return reservation, nil
	}

	if err := s.repo.UpdateStatus(ctx, reservation.ID, model.StatusCancelled); err != nil {
		s.cfg.Log.Error("Failed to cancel reservation", "id", reservation.ID, "error", err)
		return nil, apperrors.Internal("Failed to cancel reservation", err)
	}
	reservation.Status = model.StatusCancelled

	s.cfg.Log.Info("Reservation cancelled", "id", reservation.ID, "line_user_id", lineUserID)

	s.publishEvent(ctx, events.TypeReservationCancelled, reservation)

	return reservation, nil
}

// --- Helpers ---

func (s *reservationService) initialStatus() model.ReservationStatus {
	if s.cfg.AutoConfirm {
		return model.StatusConfirmed
	}
	return model.StatusPending
}

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) verifySlotFree(ctx context.Context, desiredDate time.Time) error {
	taken, err := s.repo.HasConflict(ctx, desiredDate)
	if err != nil {
		return apperrors.Internal("Failed to check slot availability", err)
	}
	if taken {
		return slotTakenError(desiredDate)
	}
	return nil
}

func slotTakenError(desiredDate time.Time) error {
	return apperrors.Conflict(fmt.Sprintf(
		"The requested slot (%s) already has a confirmed reservation. Please pick another time.",
		desiredDate.Format(time.RFC3339),
	))
}

// acquireSlotLock creates an advisory lock for the desired slot.
// Returns the lock ID if successful, or a conflict error if the lock exists.
func (s *reservationService) acquireSlotLock(ctx context.Context, desiredDate time.Time) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%d", desiredDate.Unix())

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *reservationService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *reservationService) publishEvent(ctx context.Context, eventType string, reservation *model.Reservation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishReservationEvent(ctx, eventType, reservation); err != nil {
		s.cfg.Log.Warn("Failed to journal reservation event",
			"type", eventType,
			"id", reservation.ID,
			"error", err,
		)
	}
}

// pushConfirmation sends the confirmation bubble. Failures are logged and
// swallowed: the reservation is already persisted.
func (s *reservationService) pushConfirmation(ctx context.Context, reservation *model.Reservation) {
	if s.gateway == nil || reservation.LineUserID == "" {
		return
	}

	flex := line.ConfirmationFlex(reservation, s.cfg.LiffURL, s.cfg.SiteURL)
	if err := s.gateway.Push(ctx, reservation.LineUserID, flex); err != nil {
		s.cfg.Log.Warn("Failed to push booking confirmation",
			"id", reservation.ID,
			"line_user_id", reservation.LineUserID,
			"error", err,
		)
	}
}
