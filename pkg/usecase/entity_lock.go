package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

type entityKey struct {
	workspaceID string
	entityID    model.EntityID
}

// entitySlot is a one-token channel. Goroutines blocked on a send are served
// in arrival order. refs counts the holder and every waiter.
type entitySlot struct {
	ch   chan struct{}
	refs int
}

// EntityLock serializes status changes per entity across every caller: board
// moves, direct transitions and the expiry worker. Slots exist only while
// somebody holds or waits for them.
type EntityLock struct {
	mu    sync.Mutex
	slots map[entityKey]*entitySlot
}

func NewEntityLock() *EntityLock {
	return &EntityLock{slots: make(map[entityKey]*entitySlot)}
}

// Acquire waits for the slot of an entity. With reject set it fails at once
// with model.ErrMoveInFlight when the slot is taken.
func (l *EntityLock) Acquire(ctx context.Context, workspaceID string, id model.EntityID, reject bool) (func(), error) {
	key := entityKey{workspaceID: workspaceID, entityID: id}

	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &entitySlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	release := func() {
		<-slot.ch
		l.unref(key, slot)
	}

	if reject {
		select {
		case slot.ch <- struct{}{}:
			return release, nil
		default:
			l.unref(key, slot)
			return nil, goerr.Wrap(model.ErrMoveInFlight, "entity is being changed", goerr.V(model.EntityIDKey, id))
		}
	}

	select {
	case slot.ch <- struct{}{}:
		return release, nil
	case <-ctx.Done():
		l.unref(key, slot)
		return nil, goerr.Wrap(ctx.Err(), "cancelled while waiting for entity", goerr.V(model.EntityIDKey, id))
	}
}

// Len returns the number of live slots
func (l *EntityLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *EntityLock) unref(key entityKey, slot *entitySlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
