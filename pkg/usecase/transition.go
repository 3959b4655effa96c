package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/lifecycle"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
)

// transitioner validates a status change, persists it against the status it
// was computed from and runs the resulting intents
type transitioner struct {
	repo    interfaces.Repository
	engine  *lifecycle.Engine
	intents *IntentExecutor
}

func (t *transitioner) apply(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, to types.Status, actor model.Actor, reason string) (*model.WorkflowEntity, error) {
	result, err := t.engine.Transition(entity, to, actor, reason)
	if err != nil {
		return nil, err
	}

	// Once the write starts it is not cancelled with the caller
	persistCtx := context.WithoutCancel(ctx)

	updated, err := t.repo.Entity().UpdateStatus(persistCtx, workspaceID, result.Entity, entity.Status)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to persist status",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V(model.FromStatusKey, entity.Status),
			goerr.V(model.ToStatusKey, to))
	}

	if err := t.intents.Execute(persistCtx, workspaceID, updated, result.Intents); err != nil {
		_ = errutil.Handle(ctx, err, "failed to execute side effects of transition")
	}

	return updated, nil
}
