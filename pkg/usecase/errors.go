package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	ErrNoQuestionnaire = goerr.New("entity has no questionnaire")
	ErrNotRisk         = goerr.New("entity is not a risk")
)

// Context keys for error values
const (
	QuestionnaireIDKey = "questionnaire_id"
	TemplateIDKey      = "template_id"
	RecipientKey       = "recipient"
)
