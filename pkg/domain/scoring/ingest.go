package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// RawQuestion is a question as stored by external or legacy sources, with a
// loosely typed answer decoded from JSON or TOML.
type RawQuestion struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text,omitempty"`
	Weight   float64                `json:"weight"`
	Type     string                 `json:"type"`
	Options  []model.QuestionOption `json:"options,omitempty"`
	Required bool                   `json:"required,omitempty"`
	Value    any                    `json:"value,omitempty"`
}

// RawQuestionnaire groups raw questions
type RawQuestionnaire struct {
	ID          string        `json:"id"`
	Title       string        `json:"title,omitempty"`
	Questions   []RawQuestion `json:"questions"`
	SubmittedAt *time.Time    `json:"submitted_at,omitempty"`
}

// Ingest converts raw questions into typed questions. A question of unknown
// type becomes a numeric question answered with the neutral score, so that
// the aggregator never has to deal with unknown types.
func (a *Aggregator) Ingest(raw *RawQuestionnaire) (*model.Questionnaire, error) {
	q := &model.Questionnaire{
		ID:        raw.ID,
		Title:     raw.Title,
		Questions: make([]model.ScoredQuestion, 0, len(raw.Questions)),
	}
	if raw.SubmittedAt != nil {
		at := *raw.SubmittedAt
		q.SubmittedAt = &at
	}

	for _, rq := range raw.Questions {
		sq, err := a.ingestQuestion(rq)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to ingest question", goerr.V(model.QuestionIDKey, rq.ID))
		}
		q.Questions = append(q.Questions, sq)
	}

	return q, nil
}

func (a *Aggregator) ingestQuestion(rq RawQuestion) (model.ScoredQuestion, error) {
	sq := model.ScoredQuestion{
		ID:       rq.ID,
		Text:     rq.Text,
		Weight:   rq.Weight,
		Type:     types.QuestionType(rq.Type),
		Options:  rq.Options,
		Required: rq.Required,
	}

	if !sq.Type.IsValid() {
		logging.Default().Warn("unknown question type, using neutral score",
			"question_id", rq.ID,
			"type", rq.Type)
		sq.Type = types.QuestionTypeNumeric
		sq.Options = nil
		sq.Required = false
		sq.Response = model.NumericResponse{Value: NeutralRawScore * a.rules.NumericDivisor}
		return sq, nil
	}

	if rq.Value == nil {
		return sq, nil
	}

	resp, err := toResponse(&sq, rq.Value)
	if err != nil {
		return sq, err
	}
	sq.Response = resp
	return sq, nil
}

func toResponse(q *model.ScoredQuestion, value any) (model.Response, error) {
	switch q.Type {
	case types.QuestionTypeBoolean:
		return toBoolean(value)
	case types.QuestionTypeOrdinal:
		return toOrdinal(q, value)
	case types.QuestionTypeMultiSelect:
		return toMultiSelect(value)
	case types.QuestionTypeNumeric:
		return toNumeric(value)
	}
	return nil, goerr.Wrap(model.ErrValidation, "unsupported question type", goerr.V("type", q.Type))
}

func toBoolean(value any) (model.Response, error) {
	switch v := value.(type) {
	case bool:
		return model.BooleanResponse{Value: v}, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "sim":
			return model.BooleanResponse{Value: true}, nil
		case "false", "no", "nao", "não":
			return model.BooleanResponse{Value: false}, nil
		}
	}
	return nil, goerr.Wrap(model.ErrValidation, "value must be boolean",
		goerr.V("actual_type", fmt.Sprintf("%T", value)))
}

func toOrdinal(q *model.ScoredQuestion, value any) (model.Response, error) {
	if id, ok := value.(string); ok {
		return model.OrdinalResponse{OptionID: id}, nil
	}

	// Legacy records store the chosen position instead of the option ID
	n, err := toFloat(value)
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "value must be option ID or index",
			goerr.V("actual_type", fmt.Sprintf("%T", value)))
	}
	index := int(n)
	if float64(index) != n || index < 0 || index >= len(q.Options) {
		return nil, goerr.Wrap(model.ErrValidation, "option index out of range",
			goerr.V("index", n),
			goerr.V("option_count", len(q.Options)))
	}
	return model.OrdinalResponse{OptionID: q.Options[index].ID}, nil
}

func toMultiSelect(value any) (model.Response, error) {
	switch v := value.(type) {
	case []string:
		ids := make([]string, len(v))
		copy(ids, v)
		return model.MultiSelectResponse{OptionIDs: ids}, nil
	case []any:
		ids := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, goerr.Wrap(model.ErrValidation, "multi-select values must be strings",
					goerr.V("index", i),
					goerr.V("actual_type", fmt.Sprintf("%T", item)))
			}
			ids[i] = s
		}
		return model.MultiSelectResponse{OptionIDs: ids}, nil
	}
	return nil, goerr.Wrap(model.ErrValidation, "value must be a list of option IDs",
		goerr.V("actual_type", fmt.Sprintf("%T", value)))
}

func toNumeric(value any) (model.Response, error) {
	n, err := toFloat(value)
	if err != nil {
		return nil, goerr.Wrap(model.ErrValidation, "value must be number",
			goerr.V("actual_type", fmt.Sprintf("%T", value)))
	}
	return model.NumericResponse{Value: n}, nil
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, goerr.New("not a number", goerr.V("actual_type", fmt.Sprintf("%T", value)))
}
