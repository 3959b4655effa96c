package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

func newQuestionnaire() *model.Questionnaire {
	return &model.Questionnaire{
		ID: "q-1",
		Questions: []model.ScoredQuestion{
			{ID: "mfa", Weight: 1, Type: types.QuestionTypeBoolean},
			{
				ID: "maturity", Weight: 2, Type: types.QuestionTypeOrdinal,
				Options: []model.QuestionOption{{ID: "low"}, {ID: "mid"}, {ID: "high"}},
			},
		},
	}
}

func TestQuestionnaire_Answer(t *testing.T) {
	t.Run("sets response", func(t *testing.T) {
		q := newQuestionnaire()
		gt.NoError(t, q.Answer("mfa", model.BooleanResponse{Value: true})).Required()
		gt.Value(t, q.Questions[0].Response).Equal(model.Response(model.BooleanResponse{Value: true}))
	})

	t.Run("rejects mismatched type", func(t *testing.T) {
		q := newQuestionnaire()
		err := q.Answer("mfa", model.NumericResponse{Value: 1})
		gt.Error(t, err).Is(model.ErrValidation)
		gt.Value(t, q.Questions[0].Response).Nil()
	})

	t.Run("rejects unknown question", func(t *testing.T) {
		q := newQuestionnaire()
		gt.Error(t, q.Answer("nope", model.BooleanResponse{})).Is(model.ErrValidation)
	})

	t.Run("nil clears response", func(t *testing.T) {
		q := newQuestionnaire()
		gt.NoError(t, q.Answer("mfa", model.BooleanResponse{Value: true})).Required()
		gt.NoError(t, q.Answer("mfa", nil)).Required()
		gt.Value(t, q.Questions[0].Response).Nil()
	})
}

func TestQuestionnaire_Submit(t *testing.T) {
	q := newQuestionnaire()
	gt.Bool(t, q.IsSubmitted()).False()

	gt.NoError(t, q.Submit(time.Now())).Required()
	gt.Bool(t, q.IsSubmitted()).True()

	gt.Error(t, q.Answer("mfa", model.BooleanResponse{Value: true})).Is(model.ErrQuestionnaireSubmitted)
	gt.Error(t, q.Submit(time.Now())).Is(model.ErrQuestionnaireSubmitted)
}

func TestScoredQuestion_OptionIndex(t *testing.T) {
	q := newQuestionnaire()
	gt.Number(t, q.Questions[1].OptionIndex("high")).Equal(2)
	gt.Number(t, q.Questions[1].OptionIndex("none")).Equal(-1)
}
