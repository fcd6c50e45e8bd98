package products

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

type fakeProductRepo struct {
	createFn func(ctx context.Context, product *models.Product) error
	findFn   func(ctx context.Context, sku string) (*models.Product, error)
	listFn   func(ctx context.Context) ([]models.Product, error)
	updateFn func(ctx context.Context, sku string, updates map[string]any) (int64, error)
	deleteFn func(ctx context.Context, sku string) (int64, error)
}

func (f *fakeProductRepo) Create(ctx context.Context, product *models.Product) error {
	return f.createFn(ctx, product)
}

func (f *fakeProductRepo) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return f.findFn(ctx, sku)
}

func (f *fakeProductRepo) List(ctx context.Context) ([]models.Product, error) {
	return f.listFn(ctx)
}

func (f *fakeProductRepo) Update(ctx context.Context, sku string, updates map[string]any) (int64, error) {
	return f.updateFn(ctx, sku, updates)
}

func (f *fakeProductRepo) Delete(ctx context.Context, sku string) (int64, error) {
	return f.deleteFn(ctx, sku)
}

func newTestService(t *testing.T, repo *fakeProductRepo) *Service {
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

func TestCreate_DuplicateSKUIsConflict(t *testing.T) {
	repo := &fakeProductRepo{
		createFn: func(_ context.Context, _ *models.Product) error {
			return errors.New(`duplicate key value violates unique constraint "idx_products_sku"`)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Create(context.Background(), CreateProductInput{SKU: "COKE-355", Name: "Coca-Cola 355ml"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreate_RequiresSKUAndName(t *testing.T) {
	svc := newTestService(t, &fakeProductRepo{})

	for _, input := range []CreateProductInput{
		{Name: "no sku"},
		{SKU: "NO-NAME"},
	} {
		_, err := svc.Create(context.Background(), input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("Create(%+v): expected validation error, got %v", input, err)
		}
	}
}

func TestUpdate_UnknownSKUIsNotFound(t *testing.T) {
	name := "Renamed"
	repo := &fakeProductRepo{
		updateFn: func(_ context.Context, _ string, _ map[string]any) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Update(context.Background(), "MISSING", UpdateProductInput{Name: &name})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate_RejectsEmptyPatch(t *testing.T) {
	svc := newTestService(t, &fakeProductRepo{})

	_, err := svc.Update(context.Background(), "COKE-355", UpdateProductInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDelete_UnknownSKUIsNotFound(t *testing.T) {
	repo := &fakeProductRepo{
		deleteFn: func(_ context.Context, _ string) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.Delete(context.Background(), "MISSING")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
