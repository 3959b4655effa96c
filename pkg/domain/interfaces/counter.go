package interfaces

import "context"

// CounterRepository keeps named usage counters
type CounterRepository interface {
	// Increment adds one to counter name/key and returns the new value
	Increment(ctx context.Context, workspaceID string, name, key string) (int64, error)

	// Get returns the current value, 0 if never incremented
	Get(ctx context.Context, workspaceID string, name, key string) (int64, error)
}
