package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/memory"
	"github.com/secmon-lab/themis/pkg/usecase"
)

type countingMatrixSource struct {
	calls int
	cfg   *model.RiskMatrixConfig
}

func (s *countingMatrixSource) GetMatrixConfig(ctx context.Context, tenantID string) (*model.RiskMatrixConfig, error) {
	s.calls++
	return s.cfg, nil
}

func TestCachedMatrixSource(t *testing.T) {
	ctx := context.Background()

	t.Run("config is fetched once per tenant", func(t *testing.T) {
		src := &countingMatrixSource{cfg: model.DefaultMatrixConfig()}
		cached := usecase.NewCachedMatrixSource(src)

		for i := 0; i < 3; i++ {
			cfg, err := cached.GetMatrixConfig(ctx, "t1")
			gt.NoError(t, err).Required()
			gt.Value(t, cfg.GridSize).Equal(types.Grid5x5)
		}
		gt.Number(t, src.calls).Equal(1)

		_, err := cached.GetMatrixConfig(ctx, "t2")
		gt.NoError(t, err).Required()
		gt.Number(t, src.calls).Equal(2)

		cached.Invalidate("t1")
		_, err = cached.GetMatrixConfig(ctx, "t1")
		gt.NoError(t, err).Required()
		gt.Number(t, src.calls).Equal(3)
	})

	t.Run("invalid config is not cached", func(t *testing.T) {
		src := &countingMatrixSource{cfg: &model.RiskMatrixConfig{GridSize: 7}}
		cached := usecase.NewCachedMatrixSource(src)

		_, err := cached.GetMatrixConfig(ctx, "t1")
		gt.Error(t, err).Is(model.ErrUnsupportedGrid)
		_, err = cached.GetMatrixConfig(ctx, "t1")
		gt.Error(t, err).Is(model.ErrUnsupportedGrid)
		gt.Number(t, src.calls).Equal(2)
	})
}

func TestEntityUseCase_ClassifyWithTenantMatrix(t *testing.T) {
	ctx := context.Background()

	reg := model.NewWorkspaceRegistry()
	reg.Register(&model.WorkspaceEntry{
		Workspace: model.Workspace{ID: "small"},
		Matrix: &model.RiskMatrixConfig{
			GridSize:         types.Grid3x3,
			ImpactLabels:     []string{"Baixo", "Médio", "Alto"},
			LikelihoodLabels: []string{"Baixa", "Média", "Alta"},
		},
	})
	uc := usecase.New(memory.New(), usecase.WithMatrixSource(reg))

	level, err := uc.Entity.Classify(ctx, "small", 3, 3)
	gt.NoError(t, err).Required()
	gt.Value(t, level).Equal(types.RiskLevelHigh)

	_, err = uc.Entity.Classify(ctx, "small", 4, 1)
	gt.Error(t, err).Is(model.ErrInvalidRange)

	_, err = uc.Entity.Classify(ctx, "missing", 1, 1)
	gt.Error(t, err).Is(model.ErrWorkspaceNotFound)
}
