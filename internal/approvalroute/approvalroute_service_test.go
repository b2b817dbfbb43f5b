package approvalroute_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/bp848/prod-bperp/internal/approvalroute"
	approvalrouteerrors "github.com/bp848/prod-bperp/internal/approvalroute/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRouteRepository struct {
	withTxFn           func(tx *sql.Tx) approvalroute.Repository
	createFn           func(ctx context.Context, route *approvalroute.ApprovalRoute) error
	findAllFn          func(ctx context.Context) ([]approvalroute.ApprovalRoute, error)
	findByIDFn         func(ctx context.Context, id string) (*approvalroute.ApprovalRoute, error)
	updateFn           func(ctx context.Context, route *approvalroute.ApprovalRoute) error
	deleteFn           func(ctx context.Context, id string) error
	countNonTerminalFn func(ctx context.Context, routeID string) (int64, error)
	activeUserCountFn  func(ctx context.Context, userIDs []string) (int64, error)
}

func (f *fakeRouteRepository) WithTx(tx *sql.Tx) approvalroute.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRouteRepository) Create(ctx context.Context, route *approvalroute.ApprovalRoute) error {
	if f.createFn != nil {
		return f.createFn(ctx, route)
	}
	return nil
}

func (f *fakeRouteRepository) FindAll(ctx context.Context) ([]approvalroute.ApprovalRoute, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeRouteRepository) FindByID(ctx context.Context, id string) (*approvalroute.ApprovalRoute, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRouteRepository) Update(ctx context.Context, route *approvalroute.ApprovalRoute) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, route)
	}
	return nil
}

func (f *fakeRouteRepository) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func (f *fakeRouteRepository) CountNonTerminalApplications(ctx context.Context, routeID string) (int64, error) {
	if f.countNonTerminalFn != nil {
		return f.countNonTerminalFn(ctx, routeID)
	}
	return 0, nil
}

func (f *fakeRouteRepository) ActiveUserCount(ctx context.Context, userIDs []string) (int64, error) {
	if f.activeUserCountFn != nil {
		return f.activeUserCountFn(ctx, userIDs)
	}
	return int64(len(userIDs)), nil
}

type routeServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service approvalroute.Service
	repo    *fakeRouteRepository
}

func setupRouteServiceTest(t *testing.T) *routeServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRouteRepository{}
	svc := approvalroute.NewService(db, repo)

	return &routeServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func stepRequests(ids ...string) []approvalroute.RouteStepRequest {
	steps := make([]approvalroute.RouteStepRequest, len(ids))
	for i, id := range ids {
		steps[i] = approvalroute.RouteStepRequest{ApproverID: id}
	}
	return steps
}

func TestApprovalRouteService_Create(t *testing.T) {
	ctx := context.Background()
	approverA := uuid.New().String()
	approverB := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.repo.createFn = func(ctx context.Context, route *approvalroute.ApprovalRoute) error {
			assert.Equal(t, "Manager then director", route.Name)
			assert.Len(t, route.RouteData.Steps, 2)
			assert.Equal(t, approverA, route.RouteData.Steps[0].ApproverID.String())
			return nil
		}

		resp, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "  Manager then director  ",
			Steps: stepRequests(approverA, approverB),
		})

		assert.NoError(t, err)
		assert.Equal(t, "Manager then director", resp.Name)
		assert.Len(t, resp.Steps, 2)
		assert.Equal(t, 0, resp.Steps[0].Level)
		assert.Equal(t, 1, resp.Steps[1].Level)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative same approver twice in a row", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "Doubled",
			Steps: stepRequests(approverA, approverA, approverB),
		})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrDuplicateConsecutiveApprover)
	})

	t.Run("success same approver on non adjacent steps", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		_, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "Sandwich",
			Steps: stepRequests(approverA, approverB, approverA),
		})

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative empty steps", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "No steps",
			Steps: nil,
		})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrStepsRequired)
	})

	t.Run("negative blank name", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "   ",
			Steps: stepRequests(approverA),
		})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrNameRequired)
	})

	t.Run("negative inactive approver", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.activeUserCountFn = func(ctx context.Context, userIDs []string) (int64, error) {
			return int64(len(userIDs) - 1), nil
		}

		_, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "Ghost approver",
			Steps: stepRequests(approverA, approverB),
		})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrApproverNotActive)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate name", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.createFn = func(ctx context.Context, route *approvalroute.ApprovalRoute) error {
			return &pgconn.PgError{Code: "23505", ConstraintName: "uq_approval_routes_name"}
		}

		_, err := deps.service.Create(ctx, approvalroute.CreateApprovalRouteRequest{
			Name:  "Standard",
			Steps: stepRequests(approverA),
		})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrNameAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestApprovalRouteService_Update(t *testing.T) {
	ctx := context.Background()
	approverA := uuid.New().String()
	approverB := uuid.New().String()

	existing := func() *approvalroute.ApprovalRoute {
		return &approvalroute.ApprovalRoute{
			ID:   uuid.New(),
			Name: "Standard",
			RouteData: approvalroute.RouteData{
				Steps: []approvalroute.RouteStep{{ApproverID: uuid.MustParse(approverA)}},
			},
		}
	}

	t.Run("success rename while referenced", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		route := existing()
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*approvalroute.ApprovalRoute, error) {
			return route, nil
		}
		deps.repo.countNonTerminalFn = func(ctx context.Context, routeID string) (int64, error) {
			t.Fatal("rename must not check references")
			return 0, nil
		}

		name := "Standard v2"
		resp, err := deps.service.Update(ctx, route.ID.String(), approvalroute.UpdateApprovalRouteRequest{
			Name: &name,
		})

		assert.NoError(t, err)
		assert.Equal(t, "Standard v2", resp.Name)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative step change on referenced route", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		route := existing()
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*approvalroute.ApprovalRoute, error) {
			return route, nil
		}
		deps.repo.countNonTerminalFn = func(ctx context.Context, routeID string) (int64, error) {
			return 3, nil
		}

		_, err := deps.service.Update(ctx, route.ID.String(), approvalroute.UpdateApprovalRouteRequest{
			Steps: stepRequests(approverA, approverB),
		})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrRouteInUse)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success step change on idle route", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		route := existing()
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*approvalroute.ApprovalRoute, error) {
			return route, nil
		}
		deps.repo.countNonTerminalFn = func(ctx context.Context, routeID string) (int64, error) {
			return 0, nil
		}
		deps.repo.updateFn = func(ctx context.Context, updated *approvalroute.ApprovalRoute) error {
			assert.Len(t, updated.RouteData.Steps, 2)
			return nil
		}

		resp, err := deps.service.Update(ctx, route.ID.String(), approvalroute.UpdateApprovalRouteRequest{
			Steps: stepRequests(approverA, approverB),
		})

		assert.NoError(t, err)
		assert.Len(t, resp.Steps, 2)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown route", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Update(ctx, uuid.New().String(), approvalroute.UpdateApprovalRouteRequest{})

		assert.ErrorIs(t, err, approvalrouteerrors.ErrRouteNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestApprovalRouteService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		id := uuid.New().String()
		deps.repo.deleteFn = func(ctx context.Context, targetID string) error {
			assert.Equal(t, id, targetID)
			return nil
		}

		err := deps.service.Delete(ctx, id)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative referenced route", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.countNonTerminalFn = func(ctx context.Context, routeID string) (int64, error) {
			return 1, nil
		}
		deps.repo.deleteFn = func(ctx context.Context, id string) error {
			t.Fatal("delete must not run for a referenced route")
			return nil
		}

		err := deps.service.Delete(ctx, uuid.New().String())

		assert.ErrorIs(t, err, approvalrouteerrors.ErrRouteInUse)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown route", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.deleteFn = func(ctx context.Context, id string) error {
			return gorm.ErrRecordNotFound
		}

		err := deps.service.Delete(ctx, uuid.New().String())

		assert.ErrorIs(t, err, approvalrouteerrors.ErrRouteNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative malformed id", func(t *testing.T) {
		deps := setupRouteServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Delete(ctx, "nope")

		assert.ErrorIs(t, err, approvalrouteerrors.ErrInvalidRouteID)
	})
}
