package lifecycle

import (
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Trigger says who may take an edge
type Trigger int

const (
	// TriggerActor edges are taken by users, e.g. from a board move
	TriggerActor Trigger = iota
	// TriggerSystem edges are taken only by the service, e.g. expiry
	TriggerSystem
)

// Recipient selects who a notification goes to
type Recipient int

const (
	RecipientAssignee Recipient = iota
	RecipientContact
)

// NotifyRule requests a notification when an entity enters a status
type NotifyRule struct {
	Recipient  Recipient
	TemplateID string
}

// Graph is the status vocabulary and allowed moves of one entity kind.
// A Graph is immutable once built.
type Graph struct {
	kind     types.EntityKind
	initial  types.Status
	statuses []types.Status
	terminal map[types.Status]bool
	edges    map[types.Status]map[types.Status]Trigger
	notify   map[types.Status][]NotifyRule
	usage    map[types.Status]string
}

type graphBuilder struct {
	g *Graph
}

func newGraph(kind types.EntityKind, initial types.Status, statuses ...types.Status) *graphBuilder {
	g := &Graph{
		kind:     kind,
		initial:  initial,
		statuses: statuses,
		terminal: make(map[types.Status]bool),
		edges:    make(map[types.Status]map[types.Status]Trigger),
		notify:   make(map[types.Status][]NotifyRule),
		usage:    make(map[types.Status]string),
	}
	for _, s := range statuses {
		g.edges[s] = make(map[types.Status]Trigger)
	}
	return &graphBuilder{g: g}
}

func (b *graphBuilder) edge(from types.Status, to ...types.Status) *graphBuilder {
	for _, t := range to {
		b.g.edges[from][t] = TriggerActor
	}
	return b
}

func (b *graphBuilder) terminal(statuses ...types.Status) *graphBuilder {
	for _, s := range statuses {
		b.g.terminal[s] = true
	}
	return b
}

// escape adds an edge from every non-terminal status to the given status
func (b *graphBuilder) escape(to types.Status, trigger Trigger) *graphBuilder {
	for _, s := range b.g.statuses {
		if s == to || b.g.terminal[s] {
			continue
		}
		b.g.edges[s][to] = trigger
	}
	return b
}

func (b *graphBuilder) notifyOn(status types.Status, recipient Recipient, templateID string) *graphBuilder {
	b.g.notify[status] = append(b.g.notify[status], NotifyRule{Recipient: recipient, TemplateID: templateID})
	return b
}

func (b *graphBuilder) countOn(status types.Status, counter string) *graphBuilder {
	b.g.usage[status] = counter
	return b
}

func (b *graphBuilder) build() *Graph {
	return b.g
}

// Kind returns the entity kind the graph belongs to
func (g *Graph) Kind() types.EntityKind {
	return g.kind
}

// Initial returns the status new entities start in
func (g *Graph) Initial() types.Status {
	return g.initial
}

// Statuses returns every status in board column order
func (g *Graph) Statuses() []types.Status {
	out := make([]types.Status, len(g.statuses))
	copy(out, g.statuses)
	return out
}

// Has reports whether s belongs to the vocabulary of this kind
func (g *Graph) Has(s types.Status) bool {
	_, ok := g.edges[s]
	return ok
}

// IsTerminal reports whether s is a terminal status
func (g *Graph) IsTerminal(s types.Status) bool {
	return g.terminal[s]
}

// Edge returns the trigger of from -> to and whether the edge exists
func (g *Graph) Edge(from, to types.Status) (Trigger, bool) {
	next, ok := g.edges[from]
	if !ok {
		return 0, false
	}
	trigger, ok := next[to]
	return trigger, ok
}

// Next lists statuses reachable from s in one move, in column order
func (g *Graph) Next(from types.Status, trigger Trigger) []types.Status {
	var out []types.Status
	for _, s := range g.statuses {
		if t, ok := g.Edge(from, s); ok && t <= trigger {
			out = append(out, s)
		}
	}
	return out
}

// Notification template IDs
const (
	TemplateRiskAccepted        = "risk_accepted"
	TemplateRiskClosed          = "risk_closed"
	TemplateAssessmentReview    = "assessment_under_review"
	TemplateAssessmentCompleted = "assessment_completed"
	TemplateActionPlanApproved  = "action_plan_approved"
	TemplateActionPlanCompleted = "action_plan_completed"
	TemplateActionPlanCancelled = "action_plan_cancelled"
	TemplateVendorSent          = "vendor_assessment_sent"
	TemplateVendorCompleted     = "vendor_assessment_completed"
	TemplateVendorApproved      = "vendor_assessment_approved"
	TemplateVendorRejected      = "vendor_assessment_rejected"
	TemplateVendorExpired       = "vendor_assessment_expired"
)

// CounterQuestionnaireUsage counts how often a questionnaire was sent out
const CounterQuestionnaireUsage = "questionnaire_usage"

func riskGraph() *Graph {
	return newGraph(types.EntityKindRisk, types.RiskStatusIdentified,
		types.RiskStatusIdentified,
		types.RiskStatusEvaluated,
		types.RiskStatusTreating,
		types.RiskStatusAccepted,
		types.RiskStatusMitigated,
		types.RiskStatusClosed,
	).
		terminal(types.RiskStatusClosed).
		edge(types.RiskStatusIdentified, types.RiskStatusEvaluated).
		edge(types.RiskStatusEvaluated, types.RiskStatusTreating, types.RiskStatusAccepted).
		edge(types.RiskStatusAccepted, types.RiskStatusTreating).
		edge(types.RiskStatusTreating, types.RiskStatusMitigated).
		edge(types.RiskStatusMitigated, types.RiskStatusTreating).
		escape(types.RiskStatusClosed, TriggerActor).
		notifyOn(types.RiskStatusAccepted, RecipientAssignee, TemplateRiskAccepted).
		notifyOn(types.RiskStatusClosed, RecipientAssignee, TemplateRiskClosed).
		build()
}

func assessmentGraph() *Graph {
	return newGraph(types.EntityKindAssessment, types.AssessmentStatusDraft,
		types.AssessmentStatusDraft,
		types.AssessmentStatusInProgress,
		types.AssessmentStatusUnderReview,
		types.AssessmentStatusCompleted,
		types.AssessmentStatusCancelled,
	).
		terminal(types.AssessmentStatusCompleted, types.AssessmentStatusCancelled).
		edge(types.AssessmentStatusDraft, types.AssessmentStatusInProgress).
		edge(types.AssessmentStatusInProgress, types.AssessmentStatusUnderReview).
		edge(types.AssessmentStatusUnderReview, types.AssessmentStatusCompleted, types.AssessmentStatusInProgress).
		escape(types.AssessmentStatusCancelled, TriggerActor).
		notifyOn(types.AssessmentStatusUnderReview, RecipientContact, TemplateAssessmentReview).
		notifyOn(types.AssessmentStatusCompleted, RecipientAssignee, TemplateAssessmentCompleted).
		build()
}

func actionPlanGraph() *Graph {
	return newGraph(types.EntityKindActionPlan, types.ActionPlanStatusPlanned,
		types.ActionPlanStatusPlanned,
		types.ActionPlanStatusApproved,
		types.ActionPlanStatusInProgress,
		types.ActionPlanStatusSuspended,
		types.ActionPlanStatusCompleted,
		types.ActionPlanStatusCancelled,
	).
		terminal(types.ActionPlanStatusCompleted, types.ActionPlanStatusCancelled).
		edge(types.ActionPlanStatusPlanned, types.ActionPlanStatusApproved).
		edge(types.ActionPlanStatusApproved, types.ActionPlanStatusInProgress).
		edge(types.ActionPlanStatusInProgress, types.ActionPlanStatusSuspended, types.ActionPlanStatusCompleted).
		edge(types.ActionPlanStatusSuspended, types.ActionPlanStatusInProgress).
		escape(types.ActionPlanStatusCancelled, TriggerActor).
		notifyOn(types.ActionPlanStatusApproved, RecipientAssignee, TemplateActionPlanApproved).
		notifyOn(types.ActionPlanStatusCompleted, RecipientAssignee, TemplateActionPlanCompleted).
		notifyOn(types.ActionPlanStatusCancelled, RecipientAssignee, TemplateActionPlanCancelled).
		build()
}

func vendorAssessmentGraph() *Graph {
	return newGraph(types.EntityKindVendorAssessment, types.VendorStatusDraft,
		types.VendorStatusDraft,
		types.VendorStatusSent,
		types.VendorStatusInProgress,
		types.VendorStatusCompleted,
		types.VendorStatusApproved,
		types.VendorStatusRejected,
		types.VendorStatusExpired,
	).
		terminal(types.VendorStatusApproved, types.VendorStatusExpired).
		edge(types.VendorStatusDraft, types.VendorStatusSent).
		edge(types.VendorStatusSent, types.VendorStatusInProgress).
		edge(types.VendorStatusInProgress, types.VendorStatusCompleted).
		edge(types.VendorStatusCompleted, types.VendorStatusApproved, types.VendorStatusRejected).
		edge(types.VendorStatusRejected, types.VendorStatusInProgress).
		escape(types.VendorStatusExpired, TriggerSystem).
		notifyOn(types.VendorStatusSent, RecipientContact, TemplateVendorSent).
		notifyOn(types.VendorStatusCompleted, RecipientAssignee, TemplateVendorCompleted).
		notifyOn(types.VendorStatusApproved, RecipientContact, TemplateVendorApproved).
		notifyOn(types.VendorStatusRejected, RecipientContact, TemplateVendorRejected).
		notifyOn(types.VendorStatusExpired, RecipientContact, TemplateVendorExpired).
		notifyOn(types.VendorStatusExpired, RecipientAssignee, TemplateVendorExpired).
		countOn(types.VendorStatusSent, CounterQuestionnaireUsage).
		build()
}

// DefaultGraphs returns the graphs of every entity kind
func DefaultGraphs() []*Graph {
	return []*Graph{
		riskGraph(),
		assessmentGraph(),
		actionPlanGraph(),
		vendorAssessmentGraph(),
	}
}

// TemplateIDs returns the set of notification templates used by the default
// graphs
func TemplateIDs() map[string]bool {
	ids := make(map[string]bool)
	for _, g := range DefaultGraphs() {
		for _, rules := range g.notify {
			for _, r := range rules {
				ids[r.TemplateID] = true
			}
		}
	}
	return ids
}
