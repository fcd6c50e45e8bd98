package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type fakeInventoryRepo struct {
	upsertFn func(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error)
	findFn   func(ctx context.Context, machineID string, channelID int) (*models.InventoryItem, error)
	listFn   func(ctx context.Context, machineID string) ([]models.InventoryItem, error)
	adjustFn func(ctx context.Context, machineID string, channelID, delta int) (int64, error)
	deleteFn func(ctx context.Context, machineID string, channelID int) (int64, error)
}

func (f *fakeInventoryRepo) Upsert(ctx context.Context, item *models.InventoryItem) (*models.InventoryItem, error) {
	return f.upsertFn(ctx, item)
}

func (f *fakeInventoryRepo) FindByMachineChannel(ctx context.Context, machineID string, channelID int) (*models.InventoryItem, error) {
	return f.findFn(ctx, machineID, channelID)
}

func (f *fakeInventoryRepo) ListByMachine(ctx context.Context, machineID string) ([]models.InventoryItem, error) {
	return f.listFn(ctx, machineID)
}

func (f *fakeInventoryRepo) AdjustQuantity(ctx context.Context, machineID string, channelID, delta int) (int64, error) {
	return f.adjustFn(ctx, machineID, channelID, delta)
}

func (f *fakeInventoryRepo) Delete(ctx context.Context, machineID string, channelID int) (int64, error) {
	return f.deleteFn(ctx, machineID, channelID)
}

func newTestService(t *testing.T, repo *fakeInventoryRepo) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repo:   repo,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestUpsert_RejectsNegativeQuantityAndPrice(t *testing.T) {
	svc := newTestService(t, &fakeInventoryRepo{})
	base := UpsertInput{
		MachineID: "VM-001",
		ChannelID: 3,
		ProductID: uuid.New(),
		Quantity:  5,
		Price:     decimal.NewFromFloat(18.50),
	}

	input := base
	input.Quantity = -1
	if _, err := svc.Upsert(context.Background(), input); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("negative quantity: expected validation error, got %v", err)
	}

	input = base
	input.Price = decimal.NewFromFloat(-0.01)
	if _, err := svc.Upsert(context.Background(), input); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("negative price: expected validation error, got %v", err)
	}
}

func TestAdjust_OverdrawIsConflictWithoutWrite(t *testing.T) {
	repo := &fakeInventoryRepo{
		adjustFn: func(_ context.Context, _ string, _, _ int) (int64, error) {
			return 0, nil
		},
		findFn: func(_ context.Context, _ string, _ int) (*models.InventoryItem, error) {
			return &models.InventoryItem{MachineID: "VM-001", ChannelID: 3, Quantity: 1}, nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Adjust(context.Background(), AdjustInput{MachineID: "VM-001", ChannelID: 3, Delta: -2})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAdjust_MissingChannelIsNotFound(t *testing.T) {
	repo := &fakeInventoryRepo{
		adjustFn: func(_ context.Context, _ string, _, _ int) (int64, error) {
			return 0, nil
		},
		findFn: func(_ context.Context, _ string, _ int) (*models.InventoryItem, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Adjust(context.Background(), AdjustInput{MachineID: "VM-001", ChannelID: 9, Delta: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdjust_ReturnsFreshQuantity(t *testing.T) {
	repo := &fakeInventoryRepo{
		adjustFn: func(_ context.Context, machineID string, channelID, delta int) (int64, error) {
			if machineID != "VM-001" || channelID != 3 || delta != -2 {
				t.Fatalf("adjust args = (%q, %d, %d)", machineID, channelID, delta)
			}
			return 1, nil
		},
		findFn: func(_ context.Context, _ string, _ int) (*models.InventoryItem, error) {
			return &models.InventoryItem{MachineID: "VM-001", ChannelID: 3, Quantity: 4}, nil
		},
	}
	svc := newTestService(t, repo)

	dto, err := svc.Adjust(context.Background(), AdjustInput{MachineID: "VM-001", ChannelID: 3, Delta: -2})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if dto.Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", dto.Quantity)
	}
}

func TestDelete_MissingChannelIsNotFound(t *testing.T) {
	repo := &fakeInventoryRepo{
		deleteFn: func(_ context.Context, _ string, _ int) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.Delete(context.Background(), "VM-001", 12)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
