package types

import "fmt"

// EntityKind identifies which workflow a WorkflowEntity follows
type EntityKind string

const (
	EntityKindRisk             EntityKind = "risk"
	EntityKindAssessment       EntityKind = "assessment"
	EntityKindActionPlan       EntityKind = "action_plan"
	EntityKindVendorAssessment EntityKind = "vendor_assessment"
)

// AllEntityKinds returns all valid entity kinds
func AllEntityKinds() []EntityKind {
	return []EntityKind{
		EntityKindRisk,
		EntityKindAssessment,
		EntityKindActionPlan,
		EntityKindVendorAssessment,
	}
}

// IsValid checks if the entity kind is valid
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindRisk,
		EntityKindAssessment,
		EntityKindActionPlan,
		EntityKindVendorAssessment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entity kind
func (k EntityKind) String() string {
	return string(k)
}

// ParseEntityKind parses a string into an EntityKind
func ParseEntityKind(s string) (EntityKind, error) {
	kind := EntityKind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid entity kind: %s", s)
	}
	return kind, nil
}
