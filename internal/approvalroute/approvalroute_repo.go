package approvalroute

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=approvalroute_repo.go -destination=mock/approvalroute_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, route *ApprovalRoute) error
	FindAll(ctx context.Context) ([]ApprovalRoute, error)
	FindByID(ctx context.Context, id string) (*ApprovalRoute, error)
	Update(ctx context.Context, route *ApprovalRoute) error
	Delete(ctx context.Context, id string) error
	CountNonTerminalApplications(ctx context.Context, routeID string) (int64, error)
	ActiveUserCount(ctx context.Context, userIDs []string) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, route *ApprovalRoute) error {
	return r.db.WithContext(ctx).Create(route).Error
}

func (r *repository) FindAll(ctx context.Context) ([]ApprovalRoute, error) {
	var routes []ApprovalRoute
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&routes).Error
	return routes, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*ApprovalRoute, error) {
	var route ApprovalRoute
	err := r.db.WithContext(ctx).
		First(&route, "id = ?", id).Error
	return &route, err
}

func (r *repository) Update(ctx context.Context, route *ApprovalRoute) error {
	return r.db.WithContext(ctx).Save(route).Error
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Delete(&ApprovalRoute{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountNonTerminalApplications counts draft and pending applications
// still pointing at the route. Routes with such references must not be
// mutated or removed.
func (r *repository) CountNonTerminalApplications(ctx context.Context, routeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("applications").
		Where("approval_route_id = ?", routeID).
		Where("status IN ?", []string{"draft", "pending_approval"}).
		Count(&count).Error
	return count, err
}

func (r *repository) ActiveUserCount(ctx context.Context, userIDs []string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("users").
		Where("id IN ?", userIDs).
		Where("is_active = ?", true).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count, err
}
