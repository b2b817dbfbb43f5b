package rbac

import (
	"gorm.io/gorm"
)

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetUserRoles() ([]UserRole, error)
	GetRolePermissions() ([]RolePermission, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUserRoles() ([]UserRole, error) {
	var roles []UserRole
	err := r.db.Find(&roles).Error
	return roles, err
}

func (r *repository) GetRolePermissions() ([]RolePermission, error) {
	var perms []RolePermission
	err := r.db.Find(&perms).Error
	return perms, err
}
