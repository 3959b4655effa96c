package cli

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
	"github.com/secmon-lab/themis/pkg/usecase"
)

// newUseCases wires use cases for the loaded workspaces
func newUseCases(repo interfaces.Repository, configs []*config.WorkspaceConfig, registry *model.WorkspaceRegistry, opts ...usecase.Option) (*usecase.UseCases, error) {
	rules, err := config.ScoringRules(configs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve scoring rules")
	}

	ucOpts := []usecase.Option{
		usecase.WithMatrixSource(registry),
		usecase.WithAggregator(scoring.New(scoring.WithRules(rules))),
	}
	ucOpts = append(ucOpts, opts...)

	return usecase.New(repo, ucOpts...), nil
}

func workspaceIDs(registry *model.WorkspaceRegistry) []string {
	workspaces := registry.Workspaces()
	ids := make([]string, len(workspaces))
	for i, ws := range workspaces {
		ids[i] = ws.ID
	}
	return ids
}
