package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
)

func runCounterRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Get returns zero for unknown counter", func(t *testing.T) {
		repo := newRepo(t)
		v, err := repo.Counter().Get(context.Background(), newWorkspaceID(), "questionnaire_usage", "q-1")
		gt.NoError(t, err).Required()
		gt.Number(t, v).Equal(0)
	})

	t.Run("Increment accumulates per key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		wsID := newWorkspaceID()

		v, err := repo.Counter().Increment(ctx, wsID, "questionnaire_usage", "q-1")
		gt.NoError(t, err).Required()
		gt.Number(t, v).Equal(1)

		v, err = repo.Counter().Increment(ctx, wsID, "questionnaire_usage", "q-1")
		gt.NoError(t, err).Required()
		gt.Number(t, v).Equal(2)

		v, err = repo.Counter().Get(ctx, wsID, "questionnaire_usage", "q-2")
		gt.NoError(t, err).Required()
		gt.Number(t, v).Equal(0)
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		wsID := newWorkspaceID()

		const n = 10
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Counter().Increment(ctx, wsID, "questionnaire_usage", "q-1")
				gt.NoError(t, err)
			}()
		}
		wg.Wait()

		v, err := repo.Counter().Get(ctx, wsID, "questionnaire_usage", "q-1")
		gt.NoError(t, err).Required()
		gt.Number(t, v).Equal(n)
	})
}

func TestMemoryCounterRepository(t *testing.T) {
	runCounterRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreCounterRepository(t *testing.T) {
	runCounterRepositoryTest(t, newFirestoreRepository)
}
