package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/firestore"
	"github.com/secmon-lab/themis/pkg/repository/memory"
)

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithRootCollection("test_workspaces"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

// newWorkspaceID returns a fresh workspace so that tests sharing a Firestore
// database do not see each other's data
func newWorkspaceID() string {
	return fmt.Sprintf("test-ws-%d", time.Now().UnixNano())
}

func newVendorAssessment(title string) *model.WorkflowEntity {
	return &model.WorkflowEntity{
		ID:         model.NewEntityID(),
		Kind:       types.EntityKindVendorAssessment,
		Title:      title,
		Status:     types.VendorStatusDraft,
		Priority:   types.PriorityMedium,
		ContactID:  "vendor@example.com",
		AssigneeID: "U123",
		History:    []model.StatusTransition{},
	}
}
