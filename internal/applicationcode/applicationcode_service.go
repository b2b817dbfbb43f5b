package applicationcode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	applicationcodeerrors "github.com/bp848/prod-bperp/internal/applicationcode/errors"
	"github.com/bp848/prod-bperp/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const codesAllCacheKey = "application_codes:all"

//go:generate mockgen -source=applicationcode_service.go -destination=mock/applicationcode_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context) ([]ApplicationCodeResponse, error)
	Create(ctx context.Context, req CreateApplicationCodeRequest) (ApplicationCodeResponse, error)
	Deactivate(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("applicationcode.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("applicationcode.service")
	}
	return &service{repo: repo, rdb: rdb, sf: &singleflight.Group{}, logger: l}
}

// List serves the active code catalog. Reference data changes rarely, so
// it is cached in Redis and concurrent misses are collapsed with
// singleflight to keep the database to one query.
func (s *service) List(ctx context.Context) ([]ApplicationCodeResponse, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, codesAllCacheKey).Result()
		if err == nil {
			var resp []ApplicationCodeResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(codesAllCacheKey, func() (interface{}, error) {
		codes, err := s.repo.FindAllActive(ctx)
		if err != nil {
			return nil, err
		}

		resp := mapToListResponse(codes)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, codesAllCacheKey, jsonData, 30*time.Minute)
			}
		}

		return resp, nil
	})

	if err != nil {
		s.logger.Error("list application codes failed", zap.Error(err))
		return nil, apperror.Wrap(err,
			apperror.CodeServiceUnavailable,
			"application codes are currently unavailable",
			http.StatusServiceUnavailable,
		)
	}

	return v.([]ApplicationCodeResponse), nil
}

func (s *service) Create(ctx context.Context, req CreateApplicationCodeRequest) (ApplicationCodeResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return ApplicationCodeResponse{}, applicationcodeerrors.ErrCodeRequired
	}
	if strings.TrimSpace(req.Name) == "" {
		return ApplicationCodeResponse{}, applicationcodeerrors.ErrNameRequired
	}

	entity := &ApplicationCode{
		ID:          uuid.New(),
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		return ApplicationCodeResponse{}, mapRepositoryError(err)
	}

	s.invalidateCache(ctx)

	s.logger.Info("application code created",
		zap.String("code_id", entity.ID.String()),
		zap.String("code", entity.Code),
	)

	return mapToResponse(*entity), nil
}

func (s *service) Deactivate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return applicationcodeerrors.ErrInvalidCodeID
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return mapRepositoryError(err)
	}

	s.invalidateCache(ctx)

	s.logger.Info("application code deactivated", zap.String("code_id", id))
	return nil
}

func (s *service) invalidateCache(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, codesAllCacheKey).Err(); err != nil {
		s.logger.Error("invalidate application code cache failed", zap.Error(err))
	}
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return applicationcodeerrors.ErrCodeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_application_codes_code" {
			return applicationcodeerrors.ErrCodeAlreadyExists
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_application_codes_code") {
		return applicationcodeerrors.ErrCodeAlreadyExists
	}

	return err
}

func mapToResponse(code ApplicationCode) ApplicationCodeResponse {
	return ApplicationCodeResponse{
		ID:          code.ID.String(),
		Code:        code.Code,
		Name:        code.Name,
		Description: code.Description,
		IsActive:    code.IsActive,
	}
}

func mapToListResponse(codes []ApplicationCode) []ApplicationCodeResponse {
	resp := make([]ApplicationCodeResponse, len(codes))
	for i, c := range codes {
		resp[i] = mapToResponse(c)
	}
	return resp
}
