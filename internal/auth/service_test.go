package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendfleet/vendfleet-backend/internal/users"
	pkgauth "github.com/vendfleet/vendfleet-backend/pkg/auth"
	"github.com/vendfleet/vendfleet-backend/pkg/config"
	"github.com/vendfleet/vendfleet-backend/pkg/db/models"
	"github.com/vendfleet/vendfleet-backend/pkg/enums"
	pkgerrors "github.com/vendfleet/vendfleet-backend/pkg/errors"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
	"github.com/vendfleet/vendfleet-backend/pkg/security"
)

type fakeUserRepo struct {
	createFn      func(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
	findByIDFn    func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, dto)
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "vendfleet-test",
		ExpirationMinutes: 60,
	}
}

func newTestService(t *testing.T, repo userRepo) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Repo:     repo,
		JWT:      testJWTConfig(),
		Password: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc
}

func assertCode(t *testing.T, err error, want pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if got := coded.Code(); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

func TestRegisterDefaultsToTechnicianWithOfflineAlerts(t *testing.T) {
	var created users.CreateUserDTO
	repo := &fakeUserRepo{
		createFn: func(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
			created = dto
			user := dto.ToModel()
			user.ID = uuid.New()
			return user, nil
		},
	}
	svc := newTestService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Tech@Example.COM ",
		Name:     "Tech One",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if created.Role != enums.UserRoleTechnician {
		t.Fatalf("expected technician role, got %s", created.Role)
	}
	if !created.NotifyMachineOffline || created.NotifyLowStock {
		t.Fatalf("unexpected default preferences: offline=%v lowStock=%v", created.NotifyMachineOffline, created.NotifyLowStock)
	}
	if created.PasswordHash == "" || created.PasswordHash == "long-enough-password" {
		t.Fatalf("password was not hashed")
	}
	if dto.Email != "tech@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{})

	_, err := svc.Register(context.Background(), RegisterInput{Name: "n", Password: "long-enough-password"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Name: "n", Password: "short"})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "a@b.com", Name: "n", Password: "long-enough-password", Role: "superuser"})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	repo := &fakeUserRepo{
		createFn: func(context.Context, users.CreateUserDTO) (*models.User, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "users_email_key"`)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "dup@example.com",
		Name:     "Dup",
		Password: "long-enough-password",
	})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestLoginMintsVerifiableToken(t *testing.T) {
	hash, err := security.HashPassword("correct-horse-battery", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	userID := uuid.New()
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			if email != "op@example.com" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{
				ID:           userID,
				Email:        email,
				Name:         "Operator",
				Role:         enums.UserRoleAdmin,
				PasswordHash: hash,
				CreatedAt:    time.Now().UTC(),
			}, nil
		},
	}
	svc := newTestService(t, repo)

	result, err := svc.Login(context.Background(), "op@example.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.User.ID != userID {
		t.Fatalf("unexpected user in login result")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("minted token failed to parse: %v", err)
	}
	if claims.UserID != userID || claims.Role != enums.UserRoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	hash, err := security.HashPassword("correct-horse-battery", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	repo := &fakeUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*models.User, error) {
			if email != "op@example.com" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.User{ID: uuid.New(), Email: email, Role: enums.UserRoleSales, PasswordHash: hash}, nil
		},
	}
	svc := newTestService(t, repo)

	_, err = svc.Login(context.Background(), "op@example.com", "wrong-password")
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), "ghost@example.com", "anything")
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestMeNotFound(t *testing.T) {
	svc := newTestService(t, &fakeUserRepo{})
	_, err := svc.Me(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}
