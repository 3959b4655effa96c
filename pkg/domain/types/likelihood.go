package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// LikelihoodID names a likelihood level on the horizontal axis of a workspace
// risk matrix, e.g. "almost-certain"
type LikelihoodID string

// ParseLikelihoodID reads a likelihood level ID as written in workspace
// configuration. Surrounding spaces are dropped and letters are lowered.
func ParseLikelihoodID(s string) (LikelihoodID, error) {
	id := LikelihoodID(strings.ToLower(strings.TrimSpace(s)))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

func (l LikelihoodID) Validate() error {
	if l == "" {
		return goerr.New("likelihood level ID cannot be empty")
	}
	if !idPattern.MatchString(string(l)) {
		return goerr.New("likelihood level ID must be lowercase alphanumeric with hyphens", goerr.V("likelihood_id", l))
	}
	return nil
}

func (l LikelihoodID) String() string {
	return string(l)
}
