package infra

import (
	"os"
	"path/filepath"

	"github.com/casbin/casbin/v2"
)

const modelPathEnv = "RBAC_MODEL_PATH"

// DefaultModelPath resolves the casbin model file, honoring
// RBAC_MODEL_PATH so deployments can relocate it.
func DefaultModelPath() string {
	if p := os.Getenv(modelPathEnv); p != "" {
		return p
	}
	return filepath.Join("internal", "rbac", "infra", "model.conf")
}

func NewEnforcer(modelPath string) (*casbin.Enforcer, error) {
	if modelPath == "" {
		modelPath = DefaultModelPath()
	}
	return casbin.NewEnforcer(modelPath)
}
