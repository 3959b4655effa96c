package model

import "github.com/m-mizutani/goerr/v2"

// Classifier errors. Callers are expected to validate input first.
var (
	ErrInvalidRange    = goerr.New("value out of matrix range")
	ErrUnsupportedGrid = goerr.New("unsupported matrix grid size")
)

// Scoring errors
var (
	ErrValidation             = goerr.New("questionnaire validation failed")
	ErrQuestionnaireSubmitted = goerr.New("questionnaire already submitted")
)

// Lifecycle and persistence errors
var (
	ErrInvalidTransition   = goerr.New("invalid status transition")
	ErrPersistenceConflict = goerr.New("status changed concurrently")
	ErrNotFound            = goerr.New("entity not found")
	ErrMoveInFlight        = goerr.New("another move is in flight for this entity")
)

// ErrNotificationFailure is never fatal to the transition that caused it
var ErrNotificationFailure = goerr.New("notification failed")

// Context keys for error values
const (
	EntityIDKey    = "entity_id"
	EntityKindKey  = "entity_kind"
	StatusKey      = "status"
	FromStatusKey  = "from_status"
	ToStatusKey    = "to_status"
	QuestionIDKey  = "question_id"
	GridSizeKey    = "grid_size"
	ImpactKey      = "impact"
	LikelihoodKey  = "likelihood"
	WorkspaceIDKey = "workspace_id"
)
