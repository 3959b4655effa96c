package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/lifecycle"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// MovePolicy decides what happens to a move requested while another move of
// the same entity is still running
type MovePolicy int

const (
	// MovePolicyQueue runs moves of one entity one after another, in arrival order
	MovePolicyQueue MovePolicy = iota
	// MovePolicyReject fails the new move with model.ErrMoveInFlight
	MovePolicyReject
)

// BoardEventType tells listeners why a displayed status changed
type BoardEventType string

const (
	BoardEventPending    BoardEventType = "pending"
	BoardEventCommitted  BoardEventType = "committed"
	BoardEventRolledBack BoardEventType = "rolled_back"
)

// BoardEvent is emitted whenever the displayed status of an entity changes
type BoardEvent struct {
	Type        BoardEventType
	WorkspaceID string
	EntityID    model.EntityID
	Status      types.Status
	Previous    types.Status
	Err         error
}

// BoardListener receives board events. It is called synchronously and must
// not block.
type BoardListener func(ev BoardEvent)

// BoardColumn is one status column of a board
type BoardColumn struct {
	Status   types.Status
	Terminal bool
	Entities []*model.WorkflowEntity
}

// Board is the column view of all entities of one kind
type Board struct {
	Kind    types.EntityKind
	Columns []BoardColumn
}

// displayedTTL is how long a settled status stays in the board view after the
// last move or load that touched it
const displayedTTL = 30 * time.Minute

type displayedStatus struct {
	status    types.Status
	pending   bool
	touchedAt time.Time
}

// BoardUseCase backs drag-and-drop boards. A move is shown immediately and
// reverted if the engine or the store rejects it.
type BoardUseCase struct {
	tr     *transitioner
	repo   interfaces.Repository
	engine *lifecycle.Engine
	lock   *EntityLock
	policy MovePolicy
	now    func() time.Time

	mu        sync.Mutex
	displayed map[entityKey]displayedStatus
	lastSweep time.Time
	listeners []BoardListener
}

func NewBoardUseCase(repo interfaces.Repository, engine *lifecycle.Engine, intents *IntentExecutor, lock *EntityLock, policy MovePolicy) *BoardUseCase {
	return &BoardUseCase{
		tr:        &transitioner{repo: repo, engine: engine, intents: intents},
		repo:      repo,
		engine:    engine,
		lock:      lock,
		policy:    policy,
		now:       time.Now,
		displayed: make(map[entityKey]displayedStatus),
	}
}

// Subscribe registers a listener for board events
func (uc *BoardUseCase) Subscribe(l BoardListener) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, l)
}

// Load reads all entities of kind and groups them by status in graph order
func (uc *BoardUseCase) Load(ctx context.Context, workspaceID string, kind types.EntityKind) (*Board, error) {
	g, err := uc.engine.Graph(kind)
	if err != nil {
		return nil, err
	}

	entities, err := uc.repo.Entity().ListByKind(ctx, workspaceID, kind)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load board", goerr.V(model.EntityKindKey, kind))
	}

	board := &Board{Kind: kind}
	index := make(map[types.Status]int)
	for _, s := range g.Statuses() {
		index[s] = len(board.Columns)
		board.Columns = append(board.Columns, BoardColumn{
			Status:   s,
			Terminal: g.IsTerminal(s),
			Entities: []*model.WorkflowEntity{},
		})
	}

	now := uc.now()
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, e := range entities {
		i, ok := index[e.Status]
		if !ok {
			// stored status outside the vocabulary; keep it off the board
			continue
		}
		board.Columns[i].Entities = append(board.Columns[i].Entities, e)

		key := entityKey{workspaceID: workspaceID, entityID: e.ID}
		// a running move owns the displayed status
		if cur, ok := uc.displayed[key]; ok && cur.pending {
			continue
		}
		uc.displayed[key] = displayedStatus{status: e.Status, touchedAt: now}
	}
	uc.sweepLocked(now)

	return board, nil
}

// Status returns the displayed status of an entity, which may be a pending
// optimistic value
func (uc *BoardUseCase) Status(workspaceID string, id model.EntityID) (types.Status, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	d, ok := uc.displayed[entityKey{workspaceID: workspaceID, entityID: id}]
	return d.status, ok
}

// Move drops an entity onto the column of status target. Moving onto the
// current column is a no-op.
func (uc *BoardUseCase) Move(ctx context.Context, workspaceID string, id model.EntityID, target types.Status, actor model.Actor) (*model.WorkflowEntity, error) {
	key := entityKey{workspaceID: workspaceID, entityID: id}

	release, err := uc.lock.Acquire(ctx, workspaceID, id, uc.policy == MovePolicyReject)
	if err != nil {
		return nil, goerr.Wrap(err, "move rejected")
	}
	defer release()

	entity, err := uc.repo.Entity().Get(ctx, workspaceID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get entity", goerr.V(model.EntityIDKey, id))
	}
	if entity.Status == target {
		uc.setDisplayed(key, entity.Status, false)
		return entity, nil
	}

	prior := entity.Status
	uc.setDisplayed(key, target, true)
	uc.emit(BoardEvent{
		Type:        BoardEventPending,
		WorkspaceID: workspaceID,
		EntityID:    id,
		Status:      target,
		Previous:    prior,
	})

	updated, err := uc.tr.apply(ctx, workspaceID, entity, target, actor, "")
	if err != nil {
		uc.setDisplayed(key, prior, false)
		uc.emit(BoardEvent{
			Type:        BoardEventRolledBack,
			WorkspaceID: workspaceID,
			EntityID:    id,
			Status:      prior,
			Previous:    target,
			Err:         err,
		})
		return nil, goerr.Wrap(err, "move rejected",
			goerr.V(model.EntityIDKey, id),
			goerr.V(model.FromStatusKey, prior),
			goerr.V(model.ToStatusKey, target))
	}

	uc.setDisplayed(key, updated.Status, false)
	uc.emit(BoardEvent{
		Type:        BoardEventCommitted,
		WorkspaceID: workspaceID,
		EntityID:    id,
		Status:      updated.Status,
		Previous:    prior,
	})
	return updated, nil
}

func (uc *BoardUseCase) setDisplayed(key entityKey, s types.Status, pending bool) {
	now := uc.now()
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.displayed[key] = displayedStatus{status: s, pending: pending, touchedAt: now}
	uc.sweepLocked(now)
}

// sweepLocked drops settled statuses nobody touched for displayedTTL. It
// walks the map at most once per displayedTTL.
func (uc *BoardUseCase) sweepLocked(now time.Time) {
	if now.Sub(uc.lastSweep) < displayedTTL {
		return
	}
	uc.lastSweep = now
	for key, d := range uc.displayed {
		if !d.pending && now.Sub(d.touchedAt) >= displayedTTL {
			delete(uc.displayed, key)
		}
	}
}

func (uc *BoardUseCase) emit(ev BoardEvent) {
	uc.mu.Lock()
	listeners := make([]BoardListener, len(uc.listeners))
	copy(listeners, uc.listeners)
	uc.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
