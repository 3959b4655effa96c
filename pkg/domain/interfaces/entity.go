package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// EntityRepository stores workflow entities. Status changes go through
// UpdateStatus only.
type EntityRepository interface {
	// Create stores a new entity. The entity ID must already be set.
	Create(ctx context.Context, workspaceID string, entity *model.WorkflowEntity) (*model.WorkflowEntity, error)

	// Get retrieves an entity by ID
	Get(ctx context.Context, workspaceID string, id model.EntityID) (*model.WorkflowEntity, error)

	// List retrieves all entities of the workspace
	List(ctx context.Context, workspaceID string) ([]*model.WorkflowEntity, error)

	// ListByKind retrieves entities of one kind
	ListByKind(ctx context.Context, workspaceID string, kind types.EntityKind) ([]*model.WorkflowEntity, error)

	// UpdateStatus replaces status and history with those of entity, but only
	// if the stored status still equals expectedPrevious. Otherwise it returns
	// model.ErrPersistenceConflict and stores nothing.
	UpdateStatus(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, expectedPrevious types.Status) (*model.WorkflowEntity, error)

	// UpdateScore stores computed fields (score, impact, likelihood, risk
	// level) without touching status or history
	UpdateScore(ctx context.Context, workspaceID string, entity *model.WorkflowEntity) (*model.WorkflowEntity, error)
}
