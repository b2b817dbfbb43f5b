package applicationcode

import (
	"time"

	"github.com/google/uuid"
)

// Known application codes. Each code implies a distinct form payload,
// validated at submission time (see the application module).
const (
	CodeExpense      = "EXPENSE"
	CodeTransport    = "TRANSPORT"
	CodeLeave        = "LEAVE"
	CodeRingi        = "RINGI"
	CodeDailyReport  = "DAILY_REPORT"
	CodeWeeklyReport = "WEEKLY_REPORT"
)

// ApplicationCode is immutable reference data. Codes are never deleted,
// only deactivated, so historical applications keep a valid reference.
type ApplicationCode struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string    `gorm:"column:code;type:varchar(50);not null;uniqueIndex:uq_application_codes_code"`
	Name        string    `gorm:"column:name;type:text;not null"`
	Description *string   `gorm:"column:description;type:text"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ApplicationCode) TableName() string { return "application_codes" }
