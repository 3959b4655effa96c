package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/model"
)

// AuditRepository is an append-only sink of audit records
type AuditRepository interface {
	// Append stores a record. Records are never updated or deleted.
	Append(ctx context.Context, workspaceID string, record *model.AuditRecord) error

	// List returns all records of the workspace ordered by OccurredAt
	List(ctx context.Context, workspaceID string) ([]*model.AuditRecord, error)

	// ListByEntity returns the records of one entity ordered by OccurredAt
	ListByEntity(ctx context.Context, workspaceID string, entityID model.EntityID) ([]*model.AuditRecord, error)
}
