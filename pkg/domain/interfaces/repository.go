package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Entity() EntityRepository
	Audit() AuditRepository
	Counter() CounterRepository
	Questionnaire() QuestionnaireRepository

	Close() error
}
