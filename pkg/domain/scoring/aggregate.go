// Package scoring reduces weighted questionnaire answers to a 0-100 score.
package scoring

import (
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

// Aggregator computes questionnaire scores with a fixed set of rules
type Aggregator struct {
	rules Rules
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithRules overrides the default scoring rules
func WithRules(rules Rules) Option {
	return func(a *Aggregator) {
		a.rules = rules
	}
}

// New creates an Aggregator
func New(opts ...Option) *Aggregator {
	a := &Aggregator{rules: DefaultRules()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules returns the rules in use
func (a *Aggregator) Rules() Rules {
	return a.rules
}

// Aggregate returns round(100 * Σ raw·weight / Σ 10·weight), or 0 for an
// empty questionnaire. All questions are validated before any reduction, so
// an unanswered required question always fails.
func (a *Aggregator) Aggregate(q *model.Questionnaire) (int, error) {
	if q == nil {
		return 0, nil
	}

	if err := a.Validate(q); err != nil {
		return 0, err
	}

	var total, maxTotal float64
	for i := range q.Questions {
		question := &q.Questions[i]
		total += a.raw(question) * question.Weight
		maxTotal += MaxRawScore * question.Weight
	}

	if maxTotal <= 0 {
		return 0, nil
	}
	return int(math.Round(100 * total / maxTotal)), nil
}

// Validate checks weights, required answers and that every response matches
// its question. The weights together must stay finite.
func (a *Aggregator) Validate(q *model.Questionnaire) error {
	var maxTotal float64
	for i := range q.Questions {
		if err := validateQuestion(&q.Questions[i]); err != nil {
			return err
		}
		maxTotal += MaxRawScore * q.Questions[i].Weight
	}
	if math.IsInf(maxTotal, 0) {
		return goerr.Wrap(model.ErrValidation, "sum of question weights overflows",
			goerr.V("questionnaire_id", q.ID),
			goerr.V("questions", len(q.Questions)))
	}
	return nil
}

// Raw returns the contribution of a single question in [0, 10]. The
// question must have passed validation.
func (a *Aggregator) Raw(question *model.ScoredQuestion) float64 {
	return a.raw(question)
}

func (a *Aggregator) raw(question *model.ScoredQuestion) float64 {
	switch resp := question.Response.(type) {
	case nil:
		return 0
	case model.BooleanResponse:
		if resp.Value {
			return a.rules.BooleanTrue
		}
		return a.rules.BooleanFalse
	case model.OrdinalResponse:
		index := question.OptionIndex(resp.OptionID)
		return math.Max(0, MaxRawScore-a.rules.OrdinalStep*float64(index))
	case model.MultiSelectResponse:
		if len(question.Options) == 0 {
			return 0
		}
		selected := countSelected(question, resp.OptionIDs)
		return math.Min(MaxRawScore, MaxRawScore*float64(selected)/float64(len(question.Options)))
	case model.NumericResponse:
		return math.Min(MaxRawScore, math.Max(0, resp.Value/a.rules.NumericDivisor))
	}
	return 0
}

func validateQuestion(q *model.ScoredQuestion) error {
	if q.Weight <= 0 || math.IsNaN(q.Weight) || math.IsInf(q.Weight, 0) {
		return goerr.Wrap(model.ErrValidation, "question weight must be positive",
			goerr.V(model.QuestionIDKey, q.ID),
			goerr.V("weight", q.Weight))
	}

	if q.Response == nil {
		if q.Required {
			return goerr.Wrap(model.ErrValidation, "required question is not answered",
				goerr.V(model.QuestionIDKey, q.ID))
		}
		return nil
	}

	if q.Response.QuestionType() != q.Type {
		return goerr.Wrap(model.ErrValidation, "response type does not match question type",
			goerr.V(model.QuestionIDKey, q.ID),
			goerr.V("question_type", q.Type),
			goerr.V("response_type", q.Response.QuestionType()))
	}

	switch resp := q.Response.(type) {
	case model.OrdinalResponse:
		if q.OptionIndex(resp.OptionID) < 0 {
			return goerr.Wrap(model.ErrValidation, "option not found in question",
				goerr.V(model.QuestionIDKey, q.ID),
				goerr.V("option_id", resp.OptionID))
		}
	case model.MultiSelectResponse:
		for _, id := range resp.OptionIDs {
			if q.OptionIndex(id) < 0 {
				return goerr.Wrap(model.ErrValidation, "option not found in question",
					goerr.V(model.QuestionIDKey, q.ID),
					goerr.V("option_id", id))
			}
		}
	case model.NumericResponse:
		if math.IsNaN(resp.Value) {
			return goerr.Wrap(model.ErrValidation, "numeric response is NaN",
				goerr.V(model.QuestionIDKey, q.ID))
		}
	}

	return nil
}

// countSelected counts distinct selected options
func countSelected(q *model.ScoredQuestion, ids []string) int {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if q.OptionIndex(id) >= 0 {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
