package approvalroute

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RouteStep names exactly one approver. Step order is significant and
// fixed at creation; in-flight applications index into it by level.
type RouteStep struct {
	ApproverID uuid.UUID `json:"approverId"`
}

// RouteData is the JSONB payload of the route_data column, matching the
// persisted layout {"steps":[{"approverId":...}]}.
type RouteData struct {
	Steps []RouteStep `json:"steps"`
}

func (d RouteData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *RouteData) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = RouteData{}
		return nil
	default:
		return fmt.Errorf("unsupported route_data type %T", value)
	}
}

type ApprovalRoute struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex:uq_approval_routes_name"`
	RouteData RouteData `gorm:"column:route_data;type:jsonb;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ApprovalRoute) TableName() string { return "approval_routes" }
