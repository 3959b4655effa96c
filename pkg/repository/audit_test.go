package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

func runAuditRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("records are listed in occurrence order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		wsID := newWorkspaceID()

		entity := newVendorAssessment("vendor")
		base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

		second := model.NewAuditRecord(entity, model.StatusTransition{
			From: types.VendorStatusSent, To: types.VendorStatusInProgress,
			ActorID: "U1", Timestamp: base.Add(time.Hour),
		})
		first := model.NewAuditRecord(entity, model.StatusTransition{
			From: types.VendorStatusDraft, To: types.VendorStatusSent,
			ActorID: "U1", Timestamp: base,
		})

		gt.NoError(t, repo.Audit().Append(ctx, wsID, second)).Required()
		gt.NoError(t, repo.Audit().Append(ctx, wsID, first)).Required()

		records, err := repo.Audit().ListByEntity(ctx, wsID, entity.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(2).Required()
		gt.Value(t, records[0].To).Equal(types.VendorStatusSent)
		gt.Value(t, records[1].To).Equal(types.VendorStatusInProgress)
		gt.Value(t, records[0].EntityKind).Equal(types.EntityKindVendorAssessment)
	})

	t.Run("ListByEntity ignores other entities", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		wsID := newWorkspaceID()

		a := newVendorAssessment("a")
		b := newVendorAssessment("b")
		tr := model.StatusTransition{
			From: types.VendorStatusDraft, To: types.VendorStatusSent,
			ActorID: "U1", Timestamp: time.Now().UTC(),
		}

		gt.NoError(t, repo.Audit().Append(ctx, wsID, model.NewAuditRecord(a, tr))).Required()
		gt.NoError(t, repo.Audit().Append(ctx, wsID, model.NewAuditRecord(b, tr))).Required()

		records, err := repo.Audit().ListByEntity(ctx, wsID, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(1)

		all, err := repo.Audit().List(ctx, wsID)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(2)
	})

	t.Run("Append requires ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		gt.Error(t, repo.Audit().Append(ctx, newWorkspaceID(), &model.AuditRecord{}))
	})
}

func TestMemoryAuditRepository(t *testing.T) {
	runAuditRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreAuditRepository(t *testing.T) {
	runAuditRepositoryTest(t, newFirestoreRepository)
}
