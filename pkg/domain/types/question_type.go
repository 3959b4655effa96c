package types

import "fmt"

// QuestionType represents how a questionnaire question is answered and scored
type QuestionType string

const (
	QuestionTypeBoolean     QuestionType = "boolean"
	QuestionTypeOrdinal     QuestionType = "ordinal"
	QuestionTypeMultiSelect QuestionType = "multi-select"
	QuestionTypeNumeric     QuestionType = "numeric"
)

// AllQuestionTypes returns all valid question types
func AllQuestionTypes() []QuestionType {
	return []QuestionType{
		QuestionTypeBoolean,
		QuestionTypeOrdinal,
		QuestionTypeMultiSelect,
		QuestionTypeNumeric,
	}
}

// IsValid checks if the question type is valid
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionTypeBoolean,
		QuestionTypeOrdinal,
		QuestionTypeMultiSelect,
		QuestionTypeNumeric:
		return true
	default:
		return false
	}
}

// String returns the string representation of the question type
func (t QuestionType) String() string {
	return string(t)
}

// ParseQuestionType parses a string into a QuestionType
func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid question type: %s", s)
	}
	return t, nil
}
