package approvalroute

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	approvalrouteerrors "github.com/bp848/prod-bperp/internal/approvalroute/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=approvalroute_service.go -destination=mock/approvalroute_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context) ([]ApprovalRouteResponse, error)
	GetByID(ctx context.Context, id string) (ApprovalRouteResponse, error)
	Create(ctx context.Context, req CreateApprovalRouteRequest) (ApprovalRouteResponse, error)
	Update(ctx context.Context, id string, req UpdateApprovalRouteRequest) (ApprovalRouteResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("approvalroute.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approvalroute.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) List(ctx context.Context) ([]ApprovalRouteResponse, error) {
	routes, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(routes), nil
}

func (s *service) GetByID(ctx context.Context, id string) (ApprovalRouteResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ApprovalRouteResponse{}, approvalrouteerrors.ErrInvalidRouteID
	}

	route, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalRouteResponse{}, approvalrouteerrors.ErrRouteNotFound
		}
		return ApprovalRouteResponse{}, err
	}
	return mapToResponse(*route), nil
}

func (s *service) Create(ctx context.Context, req CreateApprovalRouteRequest) (ApprovalRouteResponse, error) {
	s.logger.Debug("create approval route requested",
		zap.String("name", req.Name),
		zap.Int("steps", len(req.Steps)),
	)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ApprovalRouteResponse{}, approvalrouteerrors.ErrNameRequired
	}

	steps, err := validateSteps(req.Steps)
	if err != nil {
		s.logger.Warn("create approval route validation failed", zap.Error(err))
		return ApprovalRouteResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApprovalRouteResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := s.checkApproversActive(ctx, qtx, steps); err != nil {
		return ApprovalRouteResponse{}, err
	}

	route := &ApprovalRoute{
		ID:        uuid.New(),
		Name:      name,
		RouteData: RouteData{Steps: steps},
	}

	if err := qtx.Create(ctx, route); err != nil {
		return ApprovalRouteResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return ApprovalRouteResponse{}, err
	}

	s.logger.Info("approval route created",
		zap.String("route_id", route.ID.String()),
		zap.String("name", route.Name),
		zap.Int("steps", len(steps)),
	)

	return mapToResponse(*route), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateApprovalRouteRequest) (ApprovalRouteResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return ApprovalRouteResponse{}, approvalrouteerrors.ErrInvalidRouteID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ApprovalRouteResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	route, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalRouteResponse{}, approvalrouteerrors.ErrRouteNotFound
		}
		return ApprovalRouteResponse{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return ApprovalRouteResponse{}, approvalrouteerrors.ErrNameRequired
		}
		route.Name = name
	}

	// Changing steps under an in-flight application would retroactively
	// change who must approve it, so such routes are frozen until every
	// referencing application reaches a terminal state.
	if req.Steps != nil {
		steps, err := validateSteps(req.Steps)
		if err != nil {
			return ApprovalRouteResponse{}, err
		}

		refs, err := qtx.CountNonTerminalApplications(ctx, id)
		if err != nil {
			return ApprovalRouteResponse{}, err
		}
		if refs > 0 {
			s.logger.Warn("approval route step update blocked",
				zap.String("route_id", id),
				zap.Int64("non_terminal_refs", refs),
			)
			return ApprovalRouteResponse{}, approvalrouteerrors.ErrRouteInUse
		}

		if err := s.checkApproversActive(ctx, qtx, steps); err != nil {
			return ApprovalRouteResponse{}, err
		}

		route.RouteData = RouteData{Steps: steps}
	}

	if err := qtx.Update(ctx, route); err != nil {
		return ApprovalRouteResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return ApprovalRouteResponse{}, err
	}

	s.logger.Info("approval route updated", zap.String("route_id", id))
	return mapToResponse(*route), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return approvalrouteerrors.ErrInvalidRouteID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	refs, err := qtx.CountNonTerminalApplications(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		s.logger.Warn("approval route delete blocked",
			zap.String("route_id", id),
			zap.Int64("non_terminal_refs", refs),
		)
		return approvalrouteerrors.ErrRouteInUse
	}

	if err := qtx.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return approvalrouteerrors.ErrRouteNotFound
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("approval route deleted", zap.String("route_id", id))
	return nil
}

func validateSteps(reqSteps []RouteStepRequest) ([]RouteStep, error) {
	if len(reqSteps) == 0 {
		return nil, approvalrouteerrors.ErrStepsRequired
	}

	steps := make([]RouteStep, len(reqSteps))
	for i, st := range reqSteps {
		approverID, err := uuid.Parse(st.ApproverID)
		if err != nil {
			return nil, approvalrouteerrors.ErrInvalidApproverID
		}
		if i > 0 && steps[i-1].ApproverID == approverID {
			return nil, approvalrouteerrors.ErrDuplicateConsecutiveApprover
		}
		steps[i] = RouteStep{ApproverID: approverID}
	}
	return steps, nil
}

func (s *service) checkApproversActive(ctx context.Context, repo Repository, steps []RouteStep) error {
	unique := make(map[string]struct{}, len(steps))
	ids := make([]string, 0, len(steps))
	for _, st := range steps {
		id := st.ApproverID.String()
		if _, seen := unique[id]; !seen {
			unique[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	count, err := repo.ActiveUserCount(ctx, ids)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return approvalrouteerrors.ErrApproverNotActive
	}
	return nil
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_approval_routes_name" {
			return approvalrouteerrors.ErrNameAlreadyExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_approval_routes_name") {
		return approvalrouteerrors.ErrNameAlreadyExists
	}

	return err
}

func mapToResponse(route ApprovalRoute) ApprovalRouteResponse {
	steps := make([]RouteStepResponse, len(route.RouteData.Steps))
	for i, st := range route.RouteData.Steps {
		steps[i] = RouteStepResponse{
			Level:      i,
			ApproverID: st.ApproverID.String(),
		}
	}
	return ApprovalRouteResponse{
		ID:    route.ID.String(),
		Name:  route.Name,
		Steps: steps,
	}
}

func mapToListResponse(routes []ApprovalRoute) []ApprovalRouteResponse {
	resp := make([]ApprovalRouteResponse, len(routes))
	for i, r := range routes {
		resp[i] = mapToResponse(r)
	}
	return resp
}
