package config

import "github.com/secmon-lab/themis/pkg/domain/types"

// LikelihoodLevel represents a likelihood level configuration
type LikelihoodLevel struct {
	ID          types.LikelihoodID
	Name        string
	Description string
	Score       int
}

// ImpactLevel represents an impact level configuration
type ImpactLevel struct {
	ID          types.ImpactID
	Name        string
	Description string
	Score       int
}

// MatrixScales holds the named impact and likelihood levels of a workspace.
// Score is the matrix position of the level, starting at 1.
type MatrixScales struct {
	Impact     []ImpactLevel
	Likelihood []LikelihoodLevel
}

// ImpactScore returns the matrix position of an impact level
func (s *MatrixScales) ImpactScore(id types.ImpactID) (int, bool) {
	for _, l := range s.Impact {
		if l.ID == id {
			return l.Score, true
		}
	}
	return 0, false
}

// LikelihoodScore returns the matrix position of a likelihood level
func (s *MatrixScales) LikelihoodScore(id types.LikelihoodID) (int, bool) {
	for _, l := range s.Likelihood {
		if l.ID == id {
			return l.Score, true
		}
	}
	return 0, false
}
