package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/pagination"
)

type fakeNotificationRepo struct {
	listFn        func(ctx context.Context, unreadOnly bool, limit int, cursor *pagination.Cursor) ([]models.Notification, error)
	markReadFn    func(ctx context.Context, id uuid.UUID) (int64, error)
	markAllReadFn func(ctx context.Context) (int64, error)
}

func (f *fakeNotificationRepo) List(ctx context.Context, unreadOnly bool, limit int, cursor *pagination.Cursor) ([]models.Notification, error) {
	return f.listFn(ctx, unreadOnly, limit, cursor)
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.markReadFn(ctx, id)
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context) (int64, error) {
	return f.markAllReadFn(ctx)
}

func newTestService(t *testing.T, repo *fakeNotificationRepo) *Service {
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

func TestList_EmitsNextCursorWhenBufferOverflows(t *testing.T) {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rows := make([]models.Notification, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, models.Notification{
			ID:        uuid.New(),
			Type:      enums.NotificationTypeMachineOffline,
			Message:   "machine went offline",
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	repo := &fakeNotificationRepo{
		listFn: func(_ context.Context, unreadOnly bool, limit int, _ *pagination.Cursor) ([]models.Notification, error) {
			if unreadOnly {
				t.Fatal("unreadOnly should be false")
			}
			if limit != 3 {
				t.Fatalf("limit = %d, want 3 (page size plus buffer)", limit)
			}
			return rows, nil
		},
	}
	svc := newTestService(t, repo)

	result, err := svc.List(context.Background(), false, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(result.Notifications) != 2 {
		t.Fatalf("page size = %d, want 2", len(result.Notifications))
	}
	if result.NextCursor == "" {
		t.Fatal("expected a next cursor")
	}

	cursor, err := pagination.ParseCursor(result.NextCursor)
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if cursor.ID != rows[1].ID {
		t.Fatalf("cursor id = %s, want last returned row %s", cursor.ID, rows[1].ID)
	}
}

func TestList_NoCursorOnFinalPage(t *testing.T) {
	repo := &fakeNotificationRepo{
		listFn: func(_ context.Context, _ bool, _ int, _ *pagination.Cursor) ([]models.Notification, error) {
			return []models.Notification{{ID: uuid.New(), Type: enums.NotificationTypeSaleSuccess, Message: "ok"}}, nil
		},
	}
	svc := newTestService(t, repo)

	result, err := svc.List(context.Background(), false, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.NextCursor != "" {
		t.Fatalf("unexpected next cursor %q", result.NextCursor)
	}
}

func TestList_RejectsMalformedCursor(t *testing.T) {
	svc := newTestService(t, &fakeNotificationRepo{})

	_, err := svc.List(context.Background(), false, pagination.Params{Cursor: "not-base64!!"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkRead_MissingRowIsNotFound(t *testing.T) {
	repo := &fakeNotificationRepo{
		markReadFn: func(_ context.Context, _ uuid.UUID) (int64, error) {
			return 0, nil
		},
	}
	svc := newTestService(t, repo)

	err := svc.MarkRead(context.Background(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkAllRead_ReturnsCount(t *testing.T) {
	repo := &fakeNotificationRepo{
		markAllReadFn: func(_ context.Context) (int64, error) {
			return 7, nil
		},
	}
	svc := newTestService(t, repo)

	count, err := svc.MarkAllRead(context.Background())
	if err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
}
