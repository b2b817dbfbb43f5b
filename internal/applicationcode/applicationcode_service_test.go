package applicationcode_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bp848/prod-bperp/internal/applicationcode"
	applicationcodeerrors "github.com/bp848/prod-bperp/internal/applicationcode/errors"
	"github.com/bp848/prod-bperp/internal/shared/apperror"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeCodeRepository struct {
	createFn        func(ctx context.Context, code *applicationcode.ApplicationCode) error
	findAllActiveFn func(ctx context.Context) ([]applicationcode.ApplicationCode, error)
	findByIDFn      func(ctx context.Context, id string) (*applicationcode.ApplicationCode, error)
	deactivateFn    func(ctx context.Context, id string) error
}

func (f *fakeCodeRepository) WithTx(tx *sql.Tx) applicationcode.Repository { return f }

func (f *fakeCodeRepository) Create(ctx context.Context, code *applicationcode.ApplicationCode) error {
	if f.createFn != nil {
		return f.createFn(ctx, code)
	}
	return nil
}

func (f *fakeCodeRepository) FindAllActive(ctx context.Context) ([]applicationcode.ApplicationCode, error) {
	if f.findAllActiveFn != nil {
		return f.findAllActiveFn(ctx)
	}
	return nil, nil
}

func (f *fakeCodeRepository) FindByID(ctx context.Context, id string) (*applicationcode.ApplicationCode, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCodeRepository) Deactivate(ctx context.Context, id string) error {
	if f.deactivateFn != nil {
		return f.deactivateFn(ctx, id)
	}
	return nil
}

func TestApplicationCodeService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("success cache miss fills redis", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		codes := []applicationcode.ApplicationCode{
			{ID: uuid.New(), Code: applicationcode.CodeExpense, Name: "Expense report", IsActive: true},
			{ID: uuid.New(), Code: applicationcode.CodeRingi, Name: "Ringi", IsActive: true},
		}
		repo.findAllActiveFn = func(ctx context.Context) ([]applicationcode.ApplicationCode, error) {
			return codes, nil
		}

		redisMock.ExpectGet("application_codes:all").RedisNil()
		redisMock.Regexp().ExpectSet("application_codes:all", `.*`, 30*time.Minute).SetVal("OK")

		resp, err := svc.List(ctx)

		assert.NoError(t, err)
		assert.Len(t, resp, 2)
		assert.Equal(t, applicationcode.CodeExpense, resp[0].Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("success cache hit skips repository", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		repo.findAllActiveFn = func(ctx context.Context) ([]applicationcode.ApplicationCode, error) {
			t.Fatal("repository must not be hit on cache hit")
			return nil, nil
		}

		cached, _ := json.Marshal([]applicationcode.ApplicationCodeResponse{
			{ID: uuid.New().String(), Code: applicationcode.CodeLeave, Name: "Leave", IsActive: true},
		})
		redisMock.ExpectGet("application_codes:all").SetVal(string(cached))

		resp, err := svc.List(ctx)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, applicationcode.CodeLeave, resp[0].Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("negative store down maps to unavailable", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		repo.findAllActiveFn = func(ctx context.Context) ([]applicationcode.ApplicationCode, error) {
			return nil, errors.New("connection refused")
		}
		redisMock.ExpectGet("application_codes:all").RedisNil()

		_, err := svc.List(ctx)

		assert.Error(t, err)
		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.CodeServiceUnavailable, appErr.Code)
	})
}

func TestApplicationCodeService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success uppercases the code", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		repo.createFn = func(ctx context.Context, code *applicationcode.ApplicationCode) error {
			assert.Equal(t, "PURCHASE", code.Code)
			assert.True(t, code.IsActive)
			return nil
		}
		redisMock.ExpectDel("application_codes:all").SetVal(1)

		resp, err := svc.Create(ctx, applicationcode.CreateApplicationCodeRequest{
			Code: "purchase",
			Name: "Purchase request",
		})

		assert.NoError(t, err)
		assert.Equal(t, "PURCHASE", resp.Code)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate code", func(t *testing.T) {
		rdb, _ := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		repo.createFn = func(ctx context.Context, code *applicationcode.ApplicationCode) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_application_codes_code"}
		}

		_, err := svc.Create(ctx, applicationcode.CreateApplicationCodeRequest{
			Code: "EXPENSE",
			Name: "Expense report",
		})

		assert.ErrorIs(t, err, applicationcodeerrors.ErrCodeAlreadyExists)
	})

	t.Run("negative empty code", func(t *testing.T) {
		rdb, _ := redismock.NewClientMock()
		svc := applicationcode.NewService(&fakeCodeRepository{}, rdb)

		_, err := svc.Create(ctx, applicationcode.CreateApplicationCodeRequest{Name: "x"})

		assert.ErrorIs(t, err, applicationcodeerrors.ErrCodeRequired)
	})
}

func TestApplicationCodeService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		id := uuid.New().String()
		repo.deactivateFn = func(ctx context.Context, targetID string) error {
			assert.Equal(t, id, targetID)
			return nil
		}
		redisMock.ExpectDel("application_codes:all").SetVal(1)

		err := svc.Deactivate(ctx, id)

		assert.NoError(t, err)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("negative unknown id", func(t *testing.T) {
		rdb, _ := redismock.NewClientMock()
		repo := &fakeCodeRepository{}
		svc := applicationcode.NewService(repo, rdb)

		repo.deactivateFn = func(ctx context.Context, id string) error {
			return gorm.ErrRecordNotFound
		}

		err := svc.Deactivate(ctx, uuid.New().String())

		assert.ErrorIs(t, err, applicationcodeerrors.ErrCodeNotFound)
	})

	t.Run("negative malformed id", func(t *testing.T) {
		rdb, _ := redismock.NewClientMock()
		svc := applicationcode.NewService(&fakeCodeRepository{}, rdb)

		err := svc.Deactivate(ctx, "nope")

		assert.ErrorIs(t, err, applicationcodeerrors.ErrInvalidCodeID)
	})
}
