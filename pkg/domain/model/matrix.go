package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// RiskMatrixConfig describes a square impact x likelihood grid. Labels are
// ordered from lowest (position 1) to highest.
type RiskMatrixConfig struct {
	GridSize         types.GridSize
	ImpactLabels     []string
	LikelihoodLabels []string
}

// Validate checks the grid size and that both label lists match it
func (c *RiskMatrixConfig) Validate() error {
	if !c.GridSize.IsValid() {
		return goerr.Wrap(ErrUnsupportedGrid, "grid size must be 3, 4 or 5",
			goerr.V(GridSizeKey, c.GridSize))
	}
	if len(c.ImpactLabels) != c.GridSize.Int() {
		return goerr.New("impact label count must equal grid size",
			goerr.V(GridSizeKey, c.GridSize),
			goerr.V("label_count", len(c.ImpactLabels)))
	}
	if len(c.LikelihoodLabels) != c.GridSize.Int() {
		return goerr.New("likelihood label count must equal grid size",
			goerr.V(GridSizeKey, c.GridSize),
			goerr.V("label_count", len(c.LikelihoodLabels)))
	}
	return nil
}

// DefaultMatrixConfig returns the 5x5 matrix used when a workspace does not
// configure one
func DefaultMatrixConfig() *RiskMatrixConfig {
	return &RiskMatrixConfig{
		GridSize:         types.Grid5x5,
		ImpactLabels:     []string{"Muito Baixo", "Baixo", "Médio", "Alto", "Muito Alto"},
		LikelihoodLabels: []string{"Rara", "Improvável", "Possível", "Provável", "Quase Certa"},
	}
}
