package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// EntityID is the stable identifier of a workflow entity
type EntityID string

// NewEntityID generates a new random EntityID
func NewEntityID() EntityID {
	return EntityID(uuid.New().String())
}

func (id EntityID) String() string {
	return string(id)
}

// Refs holds ids of related entities. Entities reference each other by id
// only; none of them owns another.
type Refs struct {
	RiskIDs       []EntityID
	AssessmentIDs []EntityID
	ActionPlanIDs []EntityID
	GapIDs        []string
}

func (r Refs) clone() Refs {
	return Refs{
		RiskIDs:       cloneIDs(r.RiskIDs),
		AssessmentIDs: cloneIDs(r.AssessmentIDs),
		ActionPlanIDs: cloneIDs(r.ActionPlanIDs),
		GapIDs:        cloneStrings(r.GapIDs),
	}
}

// StatusTransition is one entry of an entity's history
type StatusTransition struct {
	From      types.Status
	To        types.Status
	ActorID   string
	System    bool
	Timestamp time.Time
	Reason    string
}

// WorkflowEntity is a risk, assessment, action plan or vendor assessment.
//
// Status and History are only changed through lifecycle.Engine.Transition,
// which returns a new snapshot instead of mutating its input. History is
// append-only.
type WorkflowEntity struct {
	ID              EntityID
	Kind            types.EntityKind
	Title           string
	Description     string
	Status          types.Status
	Priority        types.Priority
	DueDate         *time.Time
	AssigneeID      string
	ContactID       string
	QuestionnaireID string
	Refs            Refs

	// Computed fields
	Score      *int
	Impact     int
	Likelihood int
	RiskLevel  types.RiskLevel

	History   []StatusTransition
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of the entity
func (e *WorkflowEntity) Clone() *WorkflowEntity {
	if e == nil {
		return nil
	}

	c := *e
	c.Refs = e.Refs.clone()
	if e.DueDate != nil {
		d := *e.DueDate
		c.DueDate = &d
	}
	if e.Score != nil {
		s := *e.Score
		c.Score = &s
	}
	c.History = make([]StatusTransition, len(e.History))
	copy(c.History, e.History)
	return &c
}

// LastTransition returns the most recent history entry, if any
func (e *WorkflowEntity) LastTransition() (StatusTransition, bool) {
	if len(e.History) == 0 {
		return StatusTransition{}, false
	}
	return e.History[len(e.History)-1], true
}

// IsOverdue reports whether the due date has passed at the given time
func (e *WorkflowEntity) IsOverdue(now time.Time) bool {
	return e.DueDate != nil && now.After(*e.DueDate)
}

func cloneIDs(ids []EntityID) []EntityID {
	if ids == nil {
		return nil
	}
	out := make([]EntityID, len(ids))
	copy(out, ids)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
