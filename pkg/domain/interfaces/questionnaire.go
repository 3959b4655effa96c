package interfaces

import (
	"context"

	"github.com/secmon-lab/themis/pkg/domain/scoring"
)

// QuestionnaireRepository stores questionnaire answers as received, before
// they are ingested into typed questions. Put refuses an ID that is already
// stored with model.ErrQuestionnaireSubmitted.
type QuestionnaireRepository interface {
	Put(ctx context.Context, workspaceID string, q *scoring.RawQuestionnaire) error
	Get(ctx context.Context, workspaceID string, id string) (*scoring.RawQuestionnaire, error)
}
