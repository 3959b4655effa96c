package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type auditDoc struct {
	ID         string    `firestore:"id"`
	EntityID   string    `firestore:"entity_id"`
	EntityKind string    `firestore:"entity_kind"`
	From       string    `firestore:"from"`
	To         string    `firestore:"to"`
	ActorID    string    `firestore:"actor_id"`
	System     bool      `firestore:"system"`
	Reason     string    `firestore:"reason"`
	OccurredAt time.Time `firestore:"occurred_at"`
}

func toAuditDoc(r *model.AuditRecord) *auditDoc {
	return &auditDoc{
		ID:         string(r.ID),
		EntityID:   r.EntityID.String(),
		EntityKind: r.EntityKind.String(),
		From:       r.From.String(),
		To:         r.To.String(),
		ActorID:    r.ActorID,
		System:     r.System,
		Reason:     r.Reason,
		OccurredAt: r.OccurredAt,
	}
}

func (d *auditDoc) toModel() *model.AuditRecord {
	return &model.AuditRecord{
		ID:         model.AuditRecordID(d.ID),
		EntityID:   model.EntityID(d.EntityID),
		EntityKind: types.EntityKind(d.EntityKind),
		From:       types.Status(d.From),
		To:         types.Status(d.To),
		ActorID:    d.ActorID,
		System:     d.System,
		Reason:     d.Reason,
		OccurredAt: d.OccurredAt,
	}
}

type auditRepository struct {
	client *firestore.Client
	root   string
}

func newAuditRepository(client *firestore.Client) *auditRepository {
	return &auditRepository{
		client: client,
		root:   defaultRoot,
	}
}

func (r *auditRepository) collection(workspaceID string) *firestore.CollectionRef {
	return workspaceCollection(r.client, r.root, workspaceID, "audit")
}

func (r *auditRepository) Append(ctx context.Context, workspaceID string, record *model.AuditRecord) error {
	if record.ID == "" {
		return goerr.New("audit record ID is required")
	}

	// Create fails on an existing document, so records cannot be overwritten
	if _, err := r.collection(workspaceID).Doc(string(record.ID)).Create(ctx, toAuditDoc(record)); err != nil {
		return goerr.Wrap(err, "failed to append audit record",
			goerr.V("audit_id", record.ID),
			goerr.V(model.EntityIDKey, record.EntityID))
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, workspaceID string) ([]*model.AuditRecord, error) {
	return r.query(ctx, r.collection(workspaceID).OrderBy("occurred_at", firestore.Asc))
}

func (r *auditRepository) ListByEntity(ctx context.Context, workspaceID string, entityID model.EntityID) ([]*model.AuditRecord, error) {
	q := r.collection(workspaceID).
		Where("entity_id", "==", entityID.String()).
		OrderBy("occurred_at", firestore.Asc)
	return r.query(ctx, q)
}

func (r *auditRepository) query(ctx context.Context, q firestore.Query) ([]*model.AuditRecord, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	records := make([]*model.AuditRecord, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit records")
		}

		var d auditDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode audit record", goerr.V("doc_id", docSnap.Ref.ID))
		}
		records = append(records, d.toModel())
	}

	return records, nil
}
