package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// Response is the answer to a ScoredQuestion. The set of implementations is
// closed: BooleanResponse, OrdinalResponse, MultiSelectResponse and
// NumericResponse.
type Response interface {
	QuestionType() types.QuestionType
	isResponse()
}

// BooleanResponse answers a yes/no question
type BooleanResponse struct {
	Value bool
}

// OrdinalResponse picks one option of an ordered list (first = best)
type OrdinalResponse struct {
	OptionID string
}

// MultiSelectResponse picks any number of options
type MultiSelectResponse struct {
	OptionIDs []string
}

// NumericResponse is a free numeric answer
type NumericResponse struct {
	Value float64
}

func (BooleanResponse) QuestionType() types.QuestionType     { return types.QuestionTypeBoolean }
func (OrdinalResponse) QuestionType() types.QuestionType     { return types.QuestionTypeOrdinal }
func (MultiSelectResponse) QuestionType() types.QuestionType { return types.QuestionTypeMultiSelect }
func (NumericResponse) QuestionType() types.QuestionType     { return types.QuestionTypeNumeric }

func (BooleanResponse) isResponse()     {}
func (OrdinalResponse) isResponse()     {}
func (MultiSelectResponse) isResponse() {}
func (NumericResponse) isResponse()     {}

// QuestionOption is one choice of an ordinal or multi-select question
type QuestionOption struct {
	ID    string
	Label string
}

// ScoredQuestion is a weighted question with an optional response
type ScoredQuestion struct {
	ID       string
	Text     string
	Weight   float64
	Type     types.QuestionType
	Options  []QuestionOption
	Required bool
	Response Response
}

// OptionIndex returns the 0-based position of an option, or -1
func (q *ScoredQuestion) OptionIndex(optionID string) int {
	for i, opt := range q.Options {
		if opt.ID == optionID {
			return i
		}
	}
	return -1
}

// Questionnaire is an ordered set of questions. Once submitted it can no
// longer be answered.
type Questionnaire struct {
	ID          string
	Title       string
	Questions   []ScoredQuestion
	SubmittedAt *time.Time
}

// IsSubmitted reports whether the questionnaire is frozen
func (q *Questionnaire) IsSubmitted() bool {
	return q.SubmittedAt != nil
}

// Answer sets the response of a question
func (q *Questionnaire) Answer(questionID string, resp Response) error {
	if q.IsSubmitted() {
		return goerr.Wrap(ErrQuestionnaireSubmitted, "cannot answer submitted questionnaire",
			goerr.V(QuestionIDKey, questionID))
	}

	for i := range q.Questions {
		if q.Questions[i].ID != questionID {
			continue
		}
		if resp != nil && resp.QuestionType() != q.Questions[i].Type {
			return goerr.Wrap(ErrValidation, "response type does not match question type",
				goerr.V(QuestionIDKey, questionID),
				goerr.V("question_type", q.Questions[i].Type),
				goerr.V("response_type", resp.QuestionType()))
		}
		q.Questions[i].Response = resp
		return nil
	}

	return goerr.Wrap(ErrValidation, "question not found", goerr.V(QuestionIDKey, questionID))
}

// Submit freezes the questionnaire
func (q *Questionnaire) Submit(at time.Time) error {
	if q.IsSubmitted() {
		return goerr.Wrap(ErrQuestionnaireSubmitted, "questionnaire already submitted",
			goerr.V("questionnaire_id", q.ID))
	}
	q.SubmittedAt = &at
	return nil
}
