package application

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bp848/prod-bperp/internal/applicationcode"
	"github.com/bp848/prod-bperp/internal/approvalroute"
	"github.com/bp848/prod-bperp/internal/user"

	"github.com/google/uuid"
)

const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected
}

// FormData is the raw JSONB form payload. It is validated against the
// application code's schema on submit and opaque afterwards.
type FormData json.RawMessage

func (d FormData) Value() (driver.Value, error) {
	if len(d) == 0 {
		return []byte("{}"), nil
	}
	return []byte(d), nil
}

func (d *FormData) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		*d = append((*d)[0:0], v...)
		return nil
	case string:
		*d = FormData(v)
		return nil
	case nil:
		*d = nil
		return nil
	default:
		return fmt.Errorf("unsupported form_data type %T", value)
	}
}

func (d FormData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *FormData) UnmarshalJSON(data []byte) error {
	*d = append((*d)[0:0], data...)
	return nil
}

// Application is the workflow aggregate. While pending, CurrentLevel
// indexes into the route's steps and ApproverID denormalizes
// steps[CurrentLevel] so the current inbox query needs no JSONB walk.
// Rows are never deleted; terminal rows stay for the audit trail.
type Application struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationNumber string     `gorm:"column:application_number;type:varchar(20);not null;uniqueIndex:uq_applications_number"`
	ApplicantID       uuid.UUID  `gorm:"column:applicant_id;type:uuid;not null;index"`
	ApplicationCodeID uuid.UUID  `gorm:"column:application_code_id;type:uuid;not null"`
	ApprovalRouteID   *uuid.UUID `gorm:"column:approval_route_id;type:uuid"`
	Status            string     `gorm:"column:status;type:varchar(20);not null;default:draft"`
	CurrentLevel      int        `gorm:"column:current_level;not null;default:0"`
	ApproverID        *uuid.UUID `gorm:"column:approver_id;type:uuid;index"`
	FormData          FormData   `gorm:"column:form_data;type:jsonb;not null"`
	RejectionReason   *string    `gorm:"column:rejection_reason;type:text"`
	SubmittedAt       *time.Time `gorm:"column:submitted_at"`
	ApprovedAt        *time.Time `gorm:"column:approved_at"`
	RejectedAt        *time.Time `gorm:"column:rejected_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`

	Applicant *user.User                       `gorm:"foreignKey:ApplicantID"`
	Code      *applicationcode.ApplicationCode `gorm:"foreignKey:ApplicationCodeID"`
	Route     *approvalroute.ApprovalRoute     `gorm:"foreignKey:ApprovalRouteID"`
	Approver  *user.User                       `gorm:"foreignKey:ApproverID"`
}

func (Application) TableName() string { return "applications" }
