package rbac

type UserRole struct {
	UserID string `gorm:"column:user_id;type:uuid;not null"`
	RoleID string `gorm:"column:role_id;type:varchar(50);not null"`
}

func (UserRole) TableName() string { return "user_roles" }

type RolePermission struct {
	RoleID   string `gorm:"column:role_id;type:varchar(50);not null"`
	Resource string `gorm:"column:resource;type:varchar(100);not null"`
	Action   string `gorm:"column:action;type:varchar(50);not null"`
}

func (RolePermission) TableName() string { return "role_permissions" }
