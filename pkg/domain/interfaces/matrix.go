package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

// MatrixConfigSource provides the risk matrix of a tenant. Configurations
// are read-only.
type MatrixConfigSource interface {
	GetMatrixConfig(ctx context.Context, tenantID string) (*model.RiskMatrixConfig, error)
}
