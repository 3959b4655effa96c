package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

type auditRepository struct {
	mu      sync.RWMutex
	records map[string][]*model.AuditRecord
}

func newAuditRepository() *auditRepository {
	return &auditRepository{
		records: make(map[string][]*model.AuditRecord),
	}
}

func (r *auditRepository) Append(ctx context.Context, workspaceID string, record *model.AuditRecord) error {
	if record.ID == "" {
		return goerr.New("audit record ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *record
	r.records[workspaceID] = append(r.records[workspaceID], &copied)
	return nil
}

func (r *auditRepository) List(ctx context.Context, workspaceID string) ([]*model.AuditRecord, error) {
	return r.list(workspaceID, func(*model.AuditRecord) bool { return true }), nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, workspaceID string, entityID model.EntityID) ([]*model.AuditRecord, error) {
	return r.list(workspaceID, func(rec *model.AuditRecord) bool { return rec.EntityID == entityID }), nil
}

func (r *auditRepository) list(workspaceID string, match func(*model.AuditRecord) bool) []*model.AuditRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.AuditRecord, 0)
	for _, rec := range r.records[workspaceID] {
		if match(rec) {
			copied := *rec
			out = append(out, &copied)
		}
	}

	// stable keeps append order for records sharing a timestamp
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out
}
