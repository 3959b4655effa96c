package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/matrix"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// ConsistencyIssue is one stored entity that does not match the current
// lifecycle graphs or matrix configuration
type ConsistencyIssue struct {
	WorkspaceID string
	EntityID    model.EntityID
	Kind        types.EntityKind
	Message     string
	Expected    string
	Actual      string
}

// ConsistencyResult holds every issue found by CheckConsistency
type ConsistencyResult struct {
	Issues []ConsistencyIssue
}

func (r *ConsistencyResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// CheckConsistency verifies stored entities of a workspace: status in the
// vocabulary of the kind, history ending in the current status, and risk
// level matching impact and likelihood under the workspace matrix.
func (uc *EntityUseCase) CheckConsistency(ctx context.Context, workspaceID string) (*ConsistencyResult, error) {
	entities, err := uc.repo.Entity().List(ctx, workspaceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list entities", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	cfg, err := uc.matrixSource.GetMatrixConfig(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	result := &ConsistencyResult{}
	add := func(e *model.WorkflowEntity, msg, expected, actual string) {
		result.Issues = append(result.Issues, ConsistencyIssue{
			WorkspaceID: workspaceID,
			EntityID:    e.ID,
			Kind:        e.Kind,
			Message:     msg,
			Expected:    expected,
			Actual:      actual,
		})
	}

	for _, e := range entities {
		g, err := uc.engine.Graph(e.Kind)
		if err != nil {
			add(e, "unknown entity kind", "", e.Kind.String())
			continue
		}
		if !g.Has(e.Status) {
			add(e, "status is not part of the lifecycle", fmt.Sprint(g.Statuses()), e.Status.String())
		}

		if last, ok := e.LastTransition(); ok && last.To != e.Status {
			add(e, "history does not end in the current status", last.To.String(), e.Status.String())
		}

		if e.Kind == types.EntityKindRisk && e.Impact > 0 && e.Likelihood > 0 {
			level, err := matrix.Classify(e.Impact, e.Likelihood, cfg)
			if err != nil {
				add(e, "impact or likelihood outside the matrix",
					fmt.Sprintf("1..%d", cfg.GridSize.Int()),
					fmt.Sprintf("%d/%d", e.Impact, e.Likelihood))
				continue
			}
			if level != e.RiskLevel {
				add(e, "risk level does not match the matrix", level.String(), e.RiskLevel.String())
			}
		}
	}

	return result, nil
}
