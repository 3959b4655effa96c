// Package matrix classifies risks on an impact x likelihood grid.
package matrix

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

// band is a lower score bound and the level assigned at or above it
type band struct {
	min   int
	level types.RiskLevel
}

// bands are ordered from highest to lowest threshold; the last entry has min 0
var bands = map[types.GridSize][]band{
	types.Grid5x5: {
		{20, types.RiskLevelVeryHigh},
		{15, types.RiskLevelHigh},
		{9, types.RiskLevelMedium},
		{5, types.RiskLevelLow},
		{0, types.RiskLevelVeryLow},
	},
	types.Grid4x4: {
		{12, types.RiskLevelCritical},
		{8, types.RiskLevelHigh},
		{4, types.RiskLevelMediumPlain},
		{0, types.RiskLevelLow},
	},
	types.Grid3x3: {
		{6, types.RiskLevelHigh},
		{3, types.RiskLevelMediumPlain},
		{0, types.RiskLevelLow},
	},
}

// Score returns impact multiplied by likelihood
func Score(impact, likelihood int) int {
	return impact * likelihood
}

// Classify maps impact and likelihood (both 1-based positions on the grid)
// to a risk level.
func Classify(impact, likelihood int, cfg *model.RiskMatrixConfig) (types.RiskLevel, error) {
	if cfg == nil {
		return "", goerr.Wrap(model.ErrUnsupportedGrid, "matrix config is required")
	}

	table, ok := bands[cfg.GridSize]
	if !ok {
		return "", goerr.Wrap(model.ErrUnsupportedGrid, "grid size must be 3, 4 or 5",
			goerr.V(model.GridSizeKey, cfg.GridSize))
	}

	size := cfg.GridSize.Int()
	if impact < 1 || impact > size || likelihood < 1 || likelihood > size {
		return "", goerr.Wrap(model.ErrInvalidRange, "impact and likelihood must be within grid",
			goerr.V(model.GridSizeKey, size),
			goerr.V(model.ImpactKey, impact),
			goerr.V(model.LikelihoodKey, likelihood))
	}

	score := Score(impact, likelihood)
	for _, b := range table {
		if score >= b.min {
			return b.level, nil
		}
	}

	// unreachable: every table ends with min 0
	return table[len(table)-1].level, nil
}

// ClassifyLabels resolves impact and likelihood labels to their grid
// positions and classifies them.
func ClassifyLabels(impactLabel, likelihoodLabel string, cfg *model.RiskMatrixConfig) (types.RiskLevel, error) {
	if cfg == nil {
		return "", goerr.Wrap(model.ErrUnsupportedGrid, "matrix config is required")
	}

	impact := labelPosition(cfg.ImpactLabels, impactLabel)
	if impact == 0 {
		return "", goerr.Wrap(model.ErrInvalidRange, "unknown impact label",
			goerr.V(model.ImpactKey, impactLabel))
	}
	likelihood := labelPosition(cfg.LikelihoodLabels, likelihoodLabel)
	if likelihood == 0 {
		return "", goerr.Wrap(model.ErrInvalidRange, "unknown likelihood label",
			goerr.V(model.LikelihoodKey, likelihoodLabel))
	}

	return Classify(impact, likelihood, cfg)
}

// Levels lists the levels of a grid from lowest to highest
func Levels(grid types.GridSize) ([]types.RiskLevel, error) {
	table, ok := bands[grid]
	if !ok {
		return nil, goerr.Wrap(model.ErrUnsupportedGrid, "grid size must be 3, 4 or 5",
			goerr.V(model.GridSizeKey, grid))
	}

	levels := make([]types.RiskLevel, len(table))
	for i, b := range table {
		levels[len(table)-1-i] = b.level
	}
	return levels, nil
}

// Rank returns the position of level in the grid's ordering (0 = lowest),
// or -1 when the level does not belong to the grid.
func Rank(grid types.GridSize, level types.RiskLevel) int {
	levels, err := Levels(grid)
	if err != nil {
		return -1
	}
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return -1
}

func labelPosition(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i + 1
		}
	}
	return 0
}
