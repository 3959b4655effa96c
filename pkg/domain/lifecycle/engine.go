// Package lifecycle validates and applies status transitions of workflow
// entities. It performs no I/O: a transition returns a new entity snapshot
// and the side effects the caller should run.
package lifecycle

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Engine holds one graph per entity kind. It keeps no per-entity state and
// is safe for concurrent use.
type Engine struct {
	graphs map[types.EntityKind]*Graph
	now    func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock used for transition timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithGraph registers or replaces the graph of g.Kind()
func WithGraph(g *Graph) Option {
	return func(e *Engine) {
		e.graphs[g.Kind()] = g
	}
}

// New creates an Engine with the default graphs of every kind
func New(opts ...Option) *Engine {
	e := &Engine{
		graphs: make(map[types.EntityKind]*Graph),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, g := range DefaultGraphs() {
		e.graphs[g.Kind()] = g
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of a successful transition
type Result struct {
	Entity  *model.WorkflowEntity
	Intents []model.SideEffectIntent
}

// Transition moves entity to status to on behalf of actor. The input entity
// is never modified; the returned snapshot has exactly one more history
// entry.
func (e *Engine) Transition(entity *model.WorkflowEntity, to types.Status, actor model.Actor, reason string) (*Result, error) {
	if entity == nil {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "entity is required")
	}

	g, err := e.Graph(entity.Kind)
	if err != nil {
		return nil, err
	}

	from := entity.Status
	if err := g.check(from, to, actor); err != nil {
		return nil, goerr.Wrap(err, "transition rejected",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V(model.EntityKindKey, entity.Kind))
	}

	now := e.now()
	tr := model.StatusTransition{
		From:      from,
		To:        to,
		ActorID:   actor.ID,
		System:    actor.System,
		Timestamp: now,
		Reason:    strings.TrimSpace(reason),
	}

	next := entity.Clone()
	next.Status = to
	next.History = append(next.History, tr)
	next.UpdatedAt = now

	return &Result{
		Entity:  next,
		Intents: g.intents(next, tr),
	}, nil
}

// Allowed lists the statuses actor may move entity to
func (e *Engine) Allowed(entity *model.WorkflowEntity, actor model.Actor) []types.Status {
	g, err := e.Graph(entity.Kind)
	if err != nil {
		return nil
	}
	return g.Next(entity.Status, triggerOf(actor))
}

// CanTransition reports whether Transition would succeed
func (e *Engine) CanTransition(entity *model.WorkflowEntity, to types.Status, actor model.Actor) bool {
	g, err := e.Graph(entity.Kind)
	if err != nil {
		return false
	}
	return g.check(entity.Status, to, actor) == nil
}

// Graph returns the graph of kind
func (e *Engine) Graph(kind types.EntityKind) (*Graph, error) {
	g, ok := e.graphs[kind]
	if !ok {
		return nil, goerr.Wrap(model.ErrInvalidTransition, "no workflow registered for entity kind",
			goerr.V(model.EntityKindKey, kind))
	}
	return g, nil
}

// NewEntity creates an entity of kind in the kind's initial status
func (e *Engine) NewEntity(kind types.EntityKind, title string) (*model.WorkflowEntity, error) {
	g, err := e.Graph(kind)
	if err != nil {
		return nil, err
	}

	now := e.now()
	return &model.WorkflowEntity{
		ID:        model.NewEntityID(),
		Kind:      kind,
		Title:     title,
		Status:    g.Initial(),
		Priority:  types.PriorityMedium,
		History:   []model.StatusTransition{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func triggerOf(actor model.Actor) Trigger {
	if actor.System {
		return TriggerSystem
	}
	return TriggerActor
}

func (g *Graph) check(from, to types.Status, actor model.Actor) error {
	if !g.Has(from) {
		return goerr.Wrap(model.ErrInvalidTransition, "current status is not part of the workflow",
			goerr.V(model.FromStatusKey, from),
			goerr.V(model.ToStatusKey, to))
	}
	if !g.Has(to) {
		return goerr.Wrap(model.ErrInvalidTransition, "requested status is not part of the workflow",
			goerr.V(model.FromStatusKey, from),
			goerr.V(model.ToStatusKey, to))
	}

	trigger, ok := g.Edge(from, to)
	if !ok {
		return goerr.Wrap(model.ErrInvalidTransition, "no edge between statuses",
			goerr.V(model.FromStatusKey, from),
			goerr.V(model.ToStatusKey, to),
			goerr.V("terminal", g.IsTerminal(from)))
	}
	if trigger == TriggerSystem && !actor.System {
		return goerr.Wrap(model.ErrInvalidTransition, "status can only be set by the system",
			goerr.V(model.FromStatusKey, from),
			goerr.V(model.ToStatusKey, to),
			goerr.V("actor_id", actor.ID))
	}
	return nil
}

func (g *Graph) intents(entity *model.WorkflowEntity, tr model.StatusTransition) []model.SideEffectIntent {
	audit := tr
	intents := []model.SideEffectIntent{
		{
			Type:       types.IntentTypeAudit,
			EntityID:   entity.ID,
			Transition: &audit,
		},
	}

	for _, rule := range g.notify[tr.To] {
		recipient := entity.AssigneeID
		if rule.Recipient == RecipientContact {
			recipient = entity.ContactID
		}
		if recipient == "" {
			continue
		}
		intents = append(intents, model.SideEffectIntent{
			Type:       types.IntentTypeNotify,
			EntityID:   entity.ID,
			Recipient:  recipient,
			TemplateID: rule.TemplateID,
			Payload: map[string]string{
				"entity_id":   entity.ID.String(),
				"entity_kind": entity.Kind.String(),
				"title":       entity.Title,
				"from":        tr.From.String(),
				"to":          tr.To.String(),
				"actor_id":    tr.ActorID,
			},
		})
	}

	if counter, ok := g.usage[tr.To]; ok && entity.QuestionnaireID != "" {
		intents = append(intents, model.SideEffectIntent{
			Type:       types.IntentTypeIncrementUsage,
			EntityID:   entity.ID,
			Counter:    counter,
			CounterKey: entity.QuestionnaireID,
		})
	}

	return intents
}
