package types

// IntentType is the kind of follow-up action requested by a transition
type IntentType string

const (
	IntentTypeNotify         IntentType = "notify"
	IntentTypeAudit          IntentType = "audit"
	IntentTypeIncrementUsage IntentType = "increment_usage"
)

// String returns the string representation of the intent type
func (t IntentType) String() string {
	return string(t)
}
