package memory

import (
	"context"
	"sync"
)

type counterKey struct {
	workspaceID string
	name        string
	key         string
}

type counterRepository struct {
	mu     sync.Mutex
	values map[counterKey]int64
}

func newCounterRepository() *counterRepository {
	return &counterRepository{
		values: make(map[counterKey]int64),
	}
}

func (r *counterRepository) Increment(ctx context.Context, workspaceID string, name, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := counterKey{workspaceID: workspaceID, name: name, key: key}
	r.values[k]++
	return r.values[k], nil
}

func (r *counterRepository) Get(ctx context.Context, workspaceID string, name, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.values[counterKey{workspaceID: workspaceID, name: name, key: key}], nil
}
