package applicationcode

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=applicationcode_repo.go -destination=mock/applicationcode_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, code *ApplicationCode) error
	FindAllActive(ctx context.Context) ([]ApplicationCode, error)
	FindByID(ctx context.Context, id string) (*ApplicationCode, error)
	Deactivate(ctx context.Context, id string) error
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

func (r *repository) Create(ctx context.Context, code *ApplicationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) FindAllActive(ctx context.Context) ([]ApplicationCode, error) {
	var codes []ApplicationCode
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&codes).Error
	return codes, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*ApplicationCode, error) {
	var code ApplicationCode
	err := r.db.WithContext(ctx).
		First(&code, "id = ?", id).Error
	return &code, err
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&ApplicationCode{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
