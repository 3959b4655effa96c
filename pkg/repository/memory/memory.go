package memory

import (
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

// ErrNotFound is returned when an entity or record does not exist
var ErrNotFound = model.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	entity        *entityRepository
	audit         *auditRepository
	counter       *counterRepository
	questionnaire *questionnaireRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		entity:        newEntityRepository(),
		audit:         newAuditRepository(),
		counter:       newCounterRepository(),
		questionnaire: newQuestionnaireRepository(),
	}
}

func (m *Memory) Entity() interfaces.EntityRepository {
	return m.entity
}

func (m *Memory) Audit() interfaces.AuditRepository {
	return m.audit
}

func (m *Memory) Counter() interfaces.CounterRepository {
	return m.counter
}

func (m *Memory) Questionnaire() interfaces.QuestionnaireRepository {
	return m.questionnaire
}

func (m *Memory) Close() error {
	return nil
}
