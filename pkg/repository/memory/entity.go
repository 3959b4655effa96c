package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

type entityRepository struct {
	mu       sync.RWMutex
	entities map[string]map[model.EntityID]*model.WorkflowEntity
}

func newEntityRepository() *entityRepository {
	return &entityRepository{
		entities: make(map[string]map[model.EntityID]*model.WorkflowEntity),
	}
}

func (r *entityRepository) ensureWorkspace(workspaceID string) {
	if _, exists := r.entities[workspaceID]; !exists {
		r.entities[workspaceID] = make(map[model.EntityID]*model.WorkflowEntity)
	}
}

func (r *entityRepository) get(workspaceID string, id model.EntityID) (*model.WorkflowEntity, error) {
	ws, exists := r.entities[workspaceID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V(model.EntityIDKey, id))
	}
	entity, exists := ws[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V(model.EntityIDKey, id))
	}
	return entity, nil
}

func (r *entityRepository) Create(ctx context.Context, workspaceID string, entity *model.WorkflowEntity) (*model.WorkflowEntity, error) {
	if entity.ID == "" {
		return nil, goerr.New("entity ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureWorkspace(workspaceID)
	if _, exists := r.entities[workspaceID][entity.ID]; exists {
		return nil, goerr.New("entity already exists", goerr.V(model.EntityIDKey, entity.ID))
	}

	now := time.Now().UTC()
	created := entity.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	r.entities[workspaceID][created.ID] = created
	return created.Clone(), nil
}

func (r *entityRepository) Get(ctx context.Context, workspaceID string, id model.EntityID) (*model.WorkflowEntity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, err := r.get(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return entity.Clone(), nil
}

func (r *entityRepository) List(ctx context.Context, workspaceID string) ([]*model.WorkflowEntity, error) {
	return r.list(workspaceID, func(*model.WorkflowEntity) bool { return true }), nil
}

func (r *entityRepository) ListByKind(ctx context.Context, workspaceID string, kind types.EntityKind) ([]*model.WorkflowEntity, error) {
	return r.list(workspaceID, func(e *model.WorkflowEntity) bool { return e.Kind == kind }), nil
}

func (r *entityRepository) list(workspaceID string, match func(*model.WorkflowEntity) bool) []*model.WorkflowEntity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, exists := r.entities[workspaceID]
	if !exists {
		return []*model.WorkflowEntity{}
	}

	entities := make([]*model.WorkflowEntity, 0, len(ws))
	for _, entity := range ws {
		if match(entity) {
			entities = append(entities, entity.Clone())
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		if entities[i].CreatedAt.Equal(entities[j].CreatedAt) {
			return entities[i].ID < entities[j].ID
		}
		return entities[i].CreatedAt.Before(entities[j].CreatedAt)
	})
	return entities
}

func (r *entityRepository) UpdateStatus(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, expectedPrevious types.Status) (*model.WorkflowEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.get(workspaceID, entity.ID)
	if err != nil {
		return nil, err
	}

	if existing.Status != expectedPrevious {
		return nil, goerr.Wrap(model.ErrPersistenceConflict, "stored status differs from expected",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V("expected_status", expectedPrevious),
			goerr.V("actual_status", existing.Status))
	}

	// the caller must hold exactly the stored history plus one new entry
	if len(entity.History) != len(existing.History)+1 {
		return nil, goerr.Wrap(model.ErrPersistenceConflict, "stored history differs from expected",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V("expected_history_length", len(entity.History)-1),
			goerr.V("actual_history_length", len(existing.History)))
	}

	updated := existing.Clone()
	updated.Status = entity.Status
	updated.History = append(updated.History, entity.History[len(entity.History)-1])
	updated.UpdatedAt = time.Now().UTC()

	r.entities[workspaceID][updated.ID] = updated
	return updated.Clone(), nil
}

func (r *entityRepository) UpdateScore(ctx context.Context, workspaceID string, entity *model.WorkflowEntity) (*model.WorkflowEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.get(workspaceID, entity.ID)
	if err != nil {
		return nil, err
	}

	updated := existing.Clone()
	if entity.Score != nil {
		s := *entity.Score
		updated.Score = &s
	} else {
		updated.Score = nil
	}
	updated.Impact = entity.Impact
	updated.Likelihood = entity.Likelihood
	updated.RiskLevel = entity.RiskLevel
	updated.UpdatedAt = time.Now().UTC()

	r.entities[workspaceID][updated.ID] = updated
	return updated.Clone(), nil
}
