package task

import "context"

// Slot persists the serialized task list under a single key.
// Get returns repository.ErrNotFound when nothing has been stored yet.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Listener is notified after a mutation has been applied and persisted.
type Listener func(ctx context.Context, ev Event)
