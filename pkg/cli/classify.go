package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/matrix"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdClassify() *cli.Command {
	var impact, likelihood, grid int
	var showMatrix bool

	return &cli.Command{
		Name:  "classify",
		Usage: "Classify an impact and likelihood pair, or print the whole matrix",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "impact",
				Aliases:     []string{"i"},
				Usage:       "Impact position (1..grid size)",
				Destination: &impact,
			},
			&cli.IntFlag{
				Name:        "likelihood",
				Aliases:     []string{"p"},
				Usage:       "Likelihood position (1..grid size)",
				Destination: &likelihood,
			},
			&cli.IntFlag{
				Name:        "grid",
				Aliases:     []string{"g"},
				Usage:       "Grid size [3|4|5]",
				Value:       5,
				Destination: &grid,
			},
			&cli.BoolFlag{
				Name:        "matrix",
				Usage:       "Print every cell of the grid",
				Destination: &showMatrix,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := &model.RiskMatrixConfig{GridSize: types.GridSize(grid)}
			if showMatrix {
				return printMatrix(os.Stdout, cfg)
			}

			level, err := matrix.Classify(impact, likelihood, cfg)
			if err != nil {
				return goerr.Wrap(err, "failed to classify",
					goerr.V(model.ImpactKey, impact),
					goerr.V(model.LikelihoodKey, likelihood))
			}

			fmt.Printf("impact=%d likelihood=%d score=%d level=%s\n",
				impact, likelihood, matrix.Score(impact, likelihood), colorize(cfg.GridSize, level))
			return nil
		},
	}
}

// colorize paints a level from green (lowest) to red (highest) within its grid
func colorize(grid types.GridSize, level types.RiskLevel) string {
	palette := []*color.Color{
		color.New(color.FgGreen),
		color.New(color.FgCyan),
		color.New(color.FgYellow),
		color.New(color.FgHiRed),
		color.New(color.FgRed, color.Bold),
	}

	levels, err := matrix.Levels(grid)
	if err != nil {
		return level.String()
	}
	rank := matrix.Rank(grid, level)
	// spread the levels of smaller grids over the whole palette
	idx := 0
	if len(levels) > 1 {
		idx = rank * (len(palette) - 1) / (len(levels) - 1)
	}
	if idx < 0 || idx >= len(palette) {
		return level.String()
	}
	return palette[idx].Sprint(level.String())
}

func printMatrix(w io.Writer, cfg *model.RiskMatrixConfig) error {
	if !cfg.GridSize.IsValid() {
		return goerr.Wrap(model.ErrUnsupportedGrid, "grid size must be 3, 4 or 5",
			goerr.V(model.GridSizeKey, cfg.GridSize))
	}

	n := cfg.GridSize.Int()
	for l := n; l >= 1; l-- {
		fmt.Fprintf(w, "L%d |", l)
		for i := 1; i <= n; i++ {
			level, err := matrix.Classify(i, l, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, " %-12s", colorize(cfg.GridSize, level))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprint(w, "    ")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(w, " I%-11d", i)
	}
	fmt.Fprintln(w)
	return nil
}
