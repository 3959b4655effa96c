package model

import "github.com/secmon-lab/themis/pkg/domain/types"

// SideEffectIntent describes a follow-up action of a transition. The
// lifecycle engine only produces intents; executing them is up to the caller.
type SideEffectIntent struct {
	Type     types.IntentType
	EntityID EntityID

	// Notify
	Recipient  string
	TemplateID string
	Payload    map[string]string

	// IncrementUsage
	Counter    string
	CounterKey string

	// Audit
	Transition *StatusTransition
}
