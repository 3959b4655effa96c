package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

// DefaultMatrixSource serves the default 5x5 matrix to every tenant
type DefaultMatrixSource struct{}

func (DefaultMatrixSource) GetMatrixConfig(ctx context.Context, tenantID string) (*model.RiskMatrixConfig, error) {
	return model.DefaultMatrixConfig(), nil
}

// CachedMatrixSource keeps validated tenant matrices for the lifetime of the
// process. Matrices are read-only, so entries are never refreshed unless
// Invalidate is called.
type CachedMatrixSource struct {
	src   interfaces.MatrixConfigSource
	mu    sync.RWMutex
	cache map[string]*model.RiskMatrixConfig
}

var _ interfaces.MatrixConfigSource = &CachedMatrixSource{}

func NewCachedMatrixSource(src interfaces.MatrixConfigSource) *CachedMatrixSource {
	return &CachedMatrixSource{
		src:   src,
		cache: make(map[string]*model.RiskMatrixConfig),
	}
}

func (s *CachedMatrixSource) GetMatrixConfig(ctx context.Context, tenantID string) (*model.RiskMatrixConfig, error) {
	s.mu.RLock()
	cfg, ok := s.cache[tenantID]
	s.mu.RUnlock()
	if ok {
		return cfg, nil
	}

	cfg, err := s.src.GetMatrixConfig(ctx, tenantID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get matrix config", goerr.V(model.WorkspaceIDKey, tenantID))
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid matrix config", goerr.V(model.WorkspaceIDKey, tenantID))
	}

	s.mu.Lock()
	s.cache[tenantID] = cfg
	s.mu.Unlock()

	return cfg, nil
}

// Invalidate drops the cached matrix of a tenant
func (s *CachedMatrixSource) Invalidate(tenantID string) {
	s.mu.Lock()
	delete(s.cache, tenantID)
	s.mu.Unlock()
}
