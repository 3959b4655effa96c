package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// AuditRecordID is the identifier of an audit record
type AuditRecordID string

// NewAuditRecordID generates a new random AuditRecordID
func NewAuditRecordID() AuditRecordID {
	return AuditRecordID(uuid.New().String())
}

// AuditRecord is an append-only trace of one status transition
type AuditRecord struct {
	ID         AuditRecordID    `json:"id"`
	EntityID   EntityID         `json:"entity_id"`
	EntityKind types.EntityKind `json:"entity_kind"`
	From       types.Status     `json:"from"`
	To         types.Status     `json:"to"`
	ActorID    string           `json:"actor_id"`
	System     bool             `json:"system"`
	Reason     string           `json:"reason,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewAuditRecord builds the audit record for a transition of an entity
func NewAuditRecord(entity *WorkflowEntity, tr StatusTransition) *AuditRecord {
	return &AuditRecord{
		ID:         NewAuditRecordID(),
		EntityID:   entity.ID,
		EntityKind: entity.Kind,
		From:       tr.From,
		To:         tr.To,
		ActorID:    tr.ActorID,
		System:     tr.System,
		Reason:     tr.Reason,
		OccurredAt: tr.Timestamp,
	}
}
