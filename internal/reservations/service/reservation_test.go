package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"yoyaku/internal/line"
	reservationserrors "yoyaku/internal/reservations/errors"
	"yoyaku/internal/reservations/validator"
	"yoyaku/pkg/config"
	mongotx "yoyaku/pkg/db/mongo"
	apperrors "yoyaku/pkg/errors"
	"yoyaku/pkg/logger"
	"yoyaku/pkg/model"
)

// Mock repository for testing
type mockReservationRepository struct {
	createFunc               func(ctx context.Context, r *model.Reservation) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Reservation, error)
	findAllFunc              func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error)
	findByLineUserIDFunc     func(ctx context.Context, lineUserID string, limit int, offset int64) ([]*model.Reservation, error)
	findLatestFunc           func(ctx context.Context, lineUserID string) (*model.Reservation, error)
	hasConflictFunc          func(ctx context.Context, desiredDate time.Time) (bool, error)
	updateStatusFunc         func(ctx context.Context, id string, status model.ReservationStatus) error
	findConfirmedBetweenFunc func(ctx context.Context, from, to time.Time) ([]*model.Reservation, error)
	countFunc                func(ctx context.Context) (int64, error)
}

func (m *mockReservationRepository) Create(ctx context.Context, r *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, r)
	}
	r.ID = "65f000000000000000000001"
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *mockReservationRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindByLineUserID(ctx context.Context, lineUserID string, limit int, offset int64) ([]*model.Reservation, error) {
	if m.findByLineUserIDFunc != nil {
		return m.findByLineUserIDFunc(ctx, lineUserID, limit, offset)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) FindLatestByLineUserID(ctx context.Context, lineUserID string) (*model.Reservation, error) {
	if m.findLatestFunc != nil {
		return m.findLatestFunc(ctx, lineUserID)
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *mockReservationRepository) HasConflict(ctx context.Context, desiredDate time.Time) (bool, error) {
	if m.hasConflictFunc != nil {
		return m.hasConflictFunc(ctx, desiredDate)
	}
	return false, nil
}

func (m *mockReservationRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockReservationRepository) FindConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	if m.findConfirmedBetweenFunc != nil {
		return m.findConfirmedBetweenFunc(ctx, from, to)
	}
	return []*model.Reservation{}, nil
}

func (m *mockReservationRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockSlotLockRepository struct {
	createFunc func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error)
	deleteFunc func(ctx context.Context, lockID string) error
}

func (m *mockSlotLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockSlotLockRepository) Delete(ctx context.Context, lockID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, lockID)
	}
	return nil
}

type mockIdentityProvider struct {
	verifyFunc func(ctx context.Context, accessToken string) (string, error)
}

func (m *mockIdentityProvider) Verify(ctx context.Context, accessToken string) (string, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, accessToken)
	}
	return "U-test-user", nil
}

type mockGateway struct {
	replyFunc func(ctx context.Context, replyToken string, messages ...line.Message) error
	pushFunc  func(ctx context.Context, userID string, messages ...line.Message) error
	pushed    []string
}

func (m *mockGateway) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	if m.replyFunc != nil {
		return m.replyFunc(ctx, replyToken, messages...)
	}
	return nil
}

func (m *mockGateway) Push(ctx context.Context, userID string, messages ...line.Message) error {
	m.pushed = append(m.pushed, userID)
	if m.pushFunc != nil {
		return m.pushFunc(ctx, userID, messages...)
	}
	return nil
}

type mockPublisher struct {
	events []string
	err    error
}

func (m *mockPublisher) PublishReservationEvent(ctx context.Context, eventType string, r *model.Reservation) error {
	m.events = append(m.events, eventType)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Service: "test",
	})
	return &config.Config{
		Log:          log,
		AutoConfirm:  true,
		SlotLockTTL:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		LiffURL:      "https://liff.example.com/form",
		SiteURL:      "https://example.com",
	}
}

func newTestService(repo *mockReservationRepository, lockRepo *mockSlotLockRepository, identity *mockIdentityProvider, gateway *mockGateway, publisher *mockPublisher) *reservationService {
	cfg := testConfig()
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: validator.NewReservationValidator(cfg.Log),
		identity:  identity,
		gateway:   gateway,
		publisher: publisher,
		cfg:       cfg,
	}
}

func validRequest() *BookingRequest {
	return &BookingRequest{
		Name:          "Yamada Taro",
		Email:         "taro@example.com",
		DesiredDate:   time.Now().Add(48 * time.Hour),
		Content:       "Career consultation",
		IdentityToken: "valid-token",
	}
}

func TestSubmit_Success(t *testing.T) {
	repo := &mockReservationRepository{}
	gateway := &mockGateway{}
	publisher := &mockPublisher{}

	svc := newTestService(repo, &mockSlotLockRepository{}, &mockIdentityProvider{}, gateway, publisher)

	reservation, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.ID == "" {
		t.Error("expected reservation to receive an ID")
	}
	if reservation.LineUserID != "U-test-user" {
		t.Errorf("expected verified user id, got %s", reservation.LineUserID)
	}
	if reservation.Status != model.StatusConfirmed {
		t.Errorf("expected confirmed status with auto-confirm, got %s", reservation.Status)
	}
	if len(gateway.pushed) != 1 || gateway.pushed[0] != "U-test-user" {
		t.Errorf("expected one confirmation push to the user, got %v", gateway.pushed)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected created and confirmed events, got %v", publisher.events)
	}
}

func TestSubmit_PendingWhenAutoConfirmDisabled(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, &mockPublisher{})
	svc.cfg.AutoConfirm = false

	reservation, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.StatusPending {
		t.Errorf("expected pending status, got %s", reservation.Status)
	}
}

func TestSubmit_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, &mockPublisher{})

	req := validRequest()
	req.Name = ""

	_, err := svc.Submit(context.Background(), req)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != 400 {
		t.Errorf("expected status 400, got %d", appErr.StatusCode())
	}
}

func TestSubmit_IdentityFailure(t *testing.T) {
	identity := &mockIdentityProvider{
		verifyFunc: func(ctx context.Context, accessToken string) (string, error) {
			return "", apperrors.Unauthorized("access token is invalid or expired")
		},
	}
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Error("reservation must not be stored when identity verification fails")
			return nil
		},
	}

	svc := newTestService(repo, &mockSlotLockRepository{}, identity, &mockGateway{}, &mockPublisher{})

	_, err := svc.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != 401 {
		t.Errorf("expected status 401, got %d", appErr.StatusCode())
	}
}

func TestSubmit_MissingIdentityToken(t *testing.T) {
	identity := &mockIdentityProvider{
		verifyFunc: func(ctx context.Context, accessToken string) (string, error) {
			t.Error("identity provider must not be called when the token is missing")
			return "", apperrors.Unauthorized("access token is invalid or expired")
		},
	}
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Error("reservation must not be stored when the token is missing")
			return nil
		},
	}

	svc := newTestService(repo, &mockSlotLockRepository{}, identity, &mockGateway{}, &mockPublisher{})

	req := validRequest()
	req.IdentityToken = ""
	_, err := svc.Submit(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected code %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
	if appErr.StatusCode() != 400 {
		t.Errorf("expected status 400, got %d", appErr.StatusCode())
	}
}

func TestSubmit_SlotConflict(t *testing.T) {
	repo := &mockReservationRepository{
		hasConflictFunc: func(ctx context.Context, desiredDate time.Time) (bool, error) {
			return true, nil
		},
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			t.Error("reservation must not be stored when the slot is taken")
			return nil
		},
	}
	publisher := &mockPublisher{}

	svc := newTestService(repo, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, publisher)

	_, err := svc.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected conflict error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict code, got %s", appErr.Code)
	}
	if appErr.StatusCode() != 400 {
		t.Errorf("expected status 400 for slot conflict, got %d", appErr.StatusCode())
	}
	if len(publisher.events) != 0 {
		t.Errorf("expected no events for rejected booking, got %v", publisher.events)
	}
}

func TestSubmit_LockContention(t *testing.T) {
	lockRepo := &mockSlotLockRepository{
		createFunc: func(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
			return nil, errors.New("insert failed")
		},
	}

	svc := newTestService(&mockReservationRepository{}, lockRepo, &mockIdentityProvider{}, &mockGateway{}, &mockPublisher{})

	_, err := svc.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected error when lock cannot be acquired")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() != 500 {
		t.Errorf("expected status 500, got %d", appErr.StatusCode())
	}
}

func TestSubmit_DuplicateInsertMapsToConflict(t *testing.T) {
	repo := &mockReservationRepository{
		createFunc: func(ctx context.Context, r *model.Reservation) error {
			return reservationserrors.ErrSlotTaken
		},
	}

	svc := newTestService(repo, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, &mockPublisher{})

	_, err := svc.Submit(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected conflict error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict code, got %s", appErr.Code)
	}
}

func TestSubmit_PushFailureDoesNotFailBooking(t *testing.T) {
	gateway := &mockGateway{
		pushFunc: func(ctx context.Context, userID string, messages ...line.Message) error {
			return apperrors.Gateway("messaging API returned status 500", nil)
		},
	}

	svc := newTestService(&mockReservationRepository{}, &mockSlotLockRepository{}, &mockIdentityProvider{}, gateway, &mockPublisher{})

	reservation, err := svc.Submit(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("booking must stand when the push fails, got error: %v", err)
	}
	if reservation.ID == "" {
		t.Error("expected stored reservation")
	}
}

func TestSubmit_PublisherFailureDoesNotFailBooking(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("brokers unreachable")}

	svc := newTestService(&mockReservationRepository{}, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, publisher)

	if _, err := svc.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("booking must stand when event journaling fails, got error: %v", err)
	}
}

func TestLatestForUser_NotFound(t *testing.T) {
	svc := newTestService(&mockReservationRepository{}, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, &mockPublisher{})

	_, err := svc.LatestForUser(context.Background(), "U-nobody")
	if err == nil {
		t.Fatal("expected not found error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not found code, got %s", appErr.Code)
	}
}

func TestCancelLatestForUser(t *testing.T) {
	stored := &model.Reservation{
		ID:         "65f000000000000000000002",
		Name:       "Yamada Taro",
		LineUserID: "U-test-user",
		Status:     model.StatusConfirmed,
	}
	var updatedTo model.ReservationStatus
	repo := &mockReservationRepository{
		findLatestFunc: func(ctx context.Context, lineUserID string) (*model.Reservation, error) {
			found := *stored
			return &found, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status model.ReservationStatus) error {
			updatedTo = status
			return nil
		},
	}
	publisher := &mockPublisher{}

	svc := newTestService(repo, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, publisher)

	reservation, err := svc.CancelLatestForUser(context.Background(), "U-test-user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reservation.Status != model.StatusCancelled {
		t.Errorf("expected cancelled status, got %s", reservation.Status)
	}
	if updatedTo != model.StatusCancelled {
		t.Errorf("expected status update to cancelled, got %s", updatedTo)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one cancelled event, got %v", publisher.events)
	}
}

func TestCancelLatestForUser_AlreadyCancelled(t *testing.T) {
	repo := &mockReservationRepository{
		findLatestFunc: func(ctx context.Context, lineUserID string) (*model.Reservation, error) {
			return &model.Reservation{ID: "65f000000000000000000003", Status: model.StatusCancelled}, nil
		},
		updateStatusFunc: func(ctx context.Context, id string, status model.ReservationStatus) error {
			t.Error("already cancelled reservation must not be updated again")
			return nil
		},
	}
	publisher := &mockPublisher{}

	svc := newTestService(repo, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, publisher)

	reservation, err := svc.CancelLatestForUser(context.Background(), "U-test-user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reservation.Status != model.StatusCancelled {
		t.Errorf("expected cancelled status, got %s", reservation.Status)
	}
	if len(publisher.events) != 0 {
		t.Errorf("expected no events for idempotent cancel, got %v", publisher.events)
	}
}

func TestGetAll(t *testing.T) {
	repo := &mockReservationRepository{
		countFunc: func(ctx context.Context) (int64, error) {
			time.Sleep(5 * time.Millisecond)
			return 3, nil
		},
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
			time.Sleep(5 * time.Millisecond)
			return []*model.Reservation{
				{ID: "1"}, {ID: "2"}, {ID: "3"},
			}, nil
		},
	}

	svc := newTestService(repo, &mockSlotLockRepository{}, &mockIdentityProvider{}, &mockGateway{}, &mockPublisher{})

	// Run with -race to catch concurrent count/list races
	for i := 0; i < 10; i++ {
		reservations, count, err := svc.GetAll(context.Background(), 10, 0)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if count != 3 {
			t.Errorf("iteration %d: expected count 3, got %d", i, count)
		}
		if len(reservations) != 3 {
			t.Errorf("iteration %d: expected 3 reservations, got %d", i, len(reservations))
		}
	}
}
