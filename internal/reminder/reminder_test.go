package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"yoyaku/internal/line"
	reservationserrors "yoyaku/internal/reservations/errors"
	"yoyaku/pkg/config"
	mongotx "yoyaku/pkg/db/mongo"
	"yoyaku/pkg/logger"
	"yoyaku/pkg/model"
)

type mockRepository struct {
	findConfirmedBetweenFunc func(ctx context.Context, from, to time.Time) ([]*model.Reservation, error)
}

func (m *mockRepository) Create(ctx context.Context, r *model.Reservation) error { return nil }

func (m *mockRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	return nil, reservationserrors.ErrNotFound
}

func (m *mockRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockRepository) FindByLineUserID(ctx context.Context, lineUserID string, limit int, offset int64) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockRepository) FindLatestByLineUserID(ctx context.Context, lineUserID string) (*model.Reservation, error) {
	return nil, reservationserrors.ErrNotFound
}

func (m *mockRepository) HasConflict(ctx context.Context, desiredDate time.Time) (bool, error) {
	return false, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	return nil
}

func (m *mockRepository) FindConfirmedBetween(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
	if m.findConfirmedBetweenFunc != nil {
		return m.findConfirmedBetweenFunc(ctx, from, to)
	}
	return []*model.Reservation{}, nil
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) { return 0, nil }

func (m *mockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockGateway struct {
	pushed  []string
	failFor map[string]bool
}

func (m *mockGateway) Reply(ctx context.Context, replyToken string, messages ...line.Message) error {
	return nil
}

func (m *mockGateway) Push(ctx context.Context, userID string, messages ...line.Message) error {
	if m.failFor[userID] {
		return errors.New("push failed")
	}
	m.pushed = append(m.pushed, userID)
	return nil
}

func newTestSweeper(repo *mockRepository, gateway *mockGateway) *Sweeper {
	cfg := &config.Config{
		Log:               logger.New(logger.Config{Level: logger.ERROR, Format: logger.JSON, Service: "test"}),
		ReminderLookahead: 24 * time.Hour,
	}
	return NewSweeper(repo, gateway, cfg)
}

func upcoming(id, userID string, in time.Duration) *model.Reservation {
	return &model.Reservation{
		ID:          id,
		Name:        "Yamada Taro",
		LineUserID:  userID,
		DesiredDate: time.Now().Add(in),
		Status:      model.StatusConfirmed,
	}
}

func TestRun_SendsReminders(t *testing.T) {
	repo := &mockRepository{
		findConfirmedBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
			if !to.After(from) {
				t.Error("expected a forward-looking window")
			}
			return []*model.Reservation{
				upcoming("1", "U-alice", 2*time.Hour),
				upcoming("2", "U-bob", 20*time.Hour),
			}, nil
		},
	}
	gateway := &mockGateway{}

	sent, err := newTestSweeper(repo, gateway).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 2 {
		t.Errorf("expected 2 reminders sent, got %d", sent)
	}
	if len(gateway.pushed) != 2 {
		t.Errorf("expected pushes to both users, got %v", gateway.pushed)
	}
}

func TestRun_SkipsReservationsWithoutChatIdentity(t *testing.T) {
	repo := &mockRepository{
		findConfirmedBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{
				upcoming("1", "", 2*time.Hour),
				upcoming("2", "U-bob", 3*time.Hour),
			}, nil
		},
	}
	gateway := &mockGateway{}

	sent, err := newTestSweeper(repo, gateway).Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent != 1 || len(gateway.pushed) != 1 || gateway.pushed[0] != "U-bob" {
		t.Errorf("expected a single reminder to U-bob, sent=%d pushed=%v", sent, gateway.pushed)
	}
}

func TestRun_ContinuesPastPushFailures(t *testing.T) {
	repo := &mockRepository{
		findConfirmedBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
			return []*model.Reservation{
				upcoming("1", "U-alice", 2*time.Hour),
				upcoming("2", "U-bob", 3*time.Hour),
			}, nil
		},
	}
	gateway := &mockGateway{failFor: map[string]bool{"U-alice": true}}

	sent, err := newTestSweeper(repo, gateway).Run(context.Background())
	if err != nil {
		t.Fatalf("push failures must not abort the sweep, got: %v", err)
	}
	if sent != 1 || len(gateway.pushed) != 1 || gateway.pushed[0] != "U-bob" {
		t.Errorf("expected the sweep to continue past the failure, sent=%d pushed=%v", sent, gateway.pushed)
	}
}

func TestRun_StoreFailure(t *testing.T) {
	repo := &mockRepository{
		findConfirmedBetweenFunc: func(ctx context.Context, from, to time.Time) ([]*model.Reservation, error) {
			return nil, errors.New("store unreachable")
		},
	}

	if _, err := newTestSweeper(repo, &mockGateway{}).Run(context.Background()); err == nil {
		t.Error("expected error when the store is unreachable")
	}
}
