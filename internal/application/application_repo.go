package application

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=application_repo.go -destination=mock/application_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id string) (*Application, error)
	FindAllForUser(ctx context.Context, userID string) ([]Application, error)
	UpdateDraft(ctx context.Context, app *Application) error
	PromoteDraft(ctx context.Context, app *Application) (int64, error)
	AdvanceLevel(ctx context.Context, id string, fromLevel int, approverID string, nextApproverID uuid.UUID) (int64, error)
	FinalizeApproval(ctx context.Context, id string, fromLevel int, approverID string, at time.Time) (int64, error)
	RejectPending(ctx context.Context, id string, fromLevel int, approverID, reason string, at time.Time) (int64, error)
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

// conn binds gorm to the transaction when one is present, so a guarded
// UPDATE and its outbox row commit or roll back together instead of
// the UPDATE auto-committing on the pool.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	if r.tx == nil {
		return r.db.WithContext(ctx)
	}
	db := r.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	db.Statement.ConnPool = r.tx
	return db
}

func (r *repository) Create(ctx context.Context, app *Application) error {
	return r.conn(ctx).Create(app).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*Application, error) {
	var app Application
	err := r.conn(ctx).
		Preload("Applicant").
		Preload("Code").
		Preload("Route").
		Preload("Approver").
		First(&app, "id = ?", id).Error
	return &app, err
}

// FindAllForUser returns every application the user may see: their own
// (drafts included) plus anything currently waiting on their decision.
func (r *repository) FindAllForUser(ctx context.Context, userID string) ([]Application, error) {
	var apps []Application
	err := r.conn(ctx).
		Preload("Applicant").
		Preload("Code").
		Preload("Route").
		Preload("Approver").
		Where("applicant_id = ? OR (status = ? AND approver_id = ?)",
			userID, StatusPendingApproval, userID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

// UpdateDraft rewrites a draft's mutable fields. The status guard keeps
// a concurrently submitted application from being overwritten.
func (r *repository) UpdateDraft(ctx context.Context, app *Application) error {
	res := r.conn(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ?", app.ID, StatusDraft).
		Updates(map[string]any{
			"application_code_id": app.ApplicationCodeID,
			"form_data":           app.FormData,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// PromoteDraft flips a draft into pending_approval in one guarded
// UPDATE. Zero rows means the draft vanished or was already submitted.
func (r *repository) PromoteDraft(ctx context.Context, app *Application) (int64, error) {
	res := r.conn(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ?", app.ID, StatusDraft).
		Updates(map[string]any{
			"status":            StatusPendingApproval,
			"approval_route_id": app.ApprovalRouteID,
			"current_level":     0,
			"approver_id":       app.ApproverID,
			"submitted_at":      app.SubmittedAt,
		})
	return res.RowsAffected, res.Error
}

// The three decision updates below are deliberately conditional on
// (status, current_level, approver_id). Two approvers racing on the
// same step can both pass the service-level checks; only one UPDATE
// will match, and the loser sees zero rows affected.

func (r *repository) AdvanceLevel(ctx context.Context, id string, fromLevel int, approverID string, nextApproverID uuid.UUID) (int64, error) {
	res := r.conn(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ? AND current_level = ? AND approver_id = ?",
			id, StatusPendingApproval, fromLevel, approverID).
		Updates(map[string]any{
			"current_level": fromLevel + 1,
			"approver_id":   nextApproverID,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FinalizeApproval(ctx context.Context, id string, fromLevel int, approverID string, at time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ? AND current_level = ? AND approver_id = ?",
			id, StatusPendingApproval, fromLevel, approverID).
		Updates(map[string]any{
			"status":      StatusApproved,
			"approver_id": nil,
			"approved_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) RejectPending(ctx context.Context, id string, fromLevel int, approverID, reason string, at time.Time) (int64, error) {
	res := r.conn(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ? AND current_level = ? AND approver_id = ?",
			id, StatusPendingApproval, fromLevel, approverID).
		Updates(map[string]any{
			"status":           StatusRejected,
			"approver_id":      nil,
			"rejection_reason": reason,
			"rejected_at":      at,
		})
	return res.RowsAffected, res.Error
}
