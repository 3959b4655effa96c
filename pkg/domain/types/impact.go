package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ImpactID names an impact level on the vertical axis of a workspace risk
// matrix, e.g. "severe". The matrix position comes from the level score, so
// renaming a level never changes how risks are classified.
type ImpactID string

// ParseImpactID reads an impact level ID as written in workspace
// configuration. Surrounding spaces are dropped and letters are lowered.
func ParseImpactID(s string) (ImpactID, error) {
	id := ImpactID(strings.ToLower(strings.TrimSpace(s)))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

func (i ImpactID) Validate() error {
	if i == "" {
		return goerr.New("impact level ID cannot be empty")
	}
	if !idPattern.MatchString(string(i)) {
		return goerr.New("impact level ID must be lowercase alphanumeric with hyphens", goerr.V("impact_id", i))
	}
	return nil
}

func (i ImpactID) String() string {
	return string(i)
}
