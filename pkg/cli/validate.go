package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var checkDB bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-db",
		Usage:       "Check stored entities against lifecycle graphs and matrix configuration",
		Sources:     cli.EnvVars("THEMIS_CHECK_DB"),
		Destination: &checkDB,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate configuration files and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate configuration files
			configs, registry, err := appCfg.Configure(c)
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}
			if _, err := config.ScoringRules(configs); err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"workspace_count", len(configs),
			)
			for _, wc := range configs {
				grid := 0
				if m := wc.ToMatrixConfig(); m != nil {
					grid = m.GridSize.Int()
				}
				logger.Info("Workspace validated",
					"id", wc.Workspace.ID,
					"name", wc.Workspace.Name,
					"grid_size", grid,
					"notification_routes", len(wc.Notification.Channels),
				)
			}

			// Step 2: If requested, run DB consistency check
			if !checkDB {
				logger.Info("DB consistency check not requested, skipping")
				return nil
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			uc, err := newUseCases(repo, configs, registry)
			if err != nil {
				return err
			}

			total := 0
			for _, wsID := range workspaceIDs(registry) {
				result, err := uc.Entity.CheckConsistency(ctx, wsID)
				if err != nil {
					return goerr.Wrap(err, "DB consistency check failed", goerr.V("workspace_id", wsID))
				}

				for _, issue := range result.Issues {
					logger.Warn("DB consistency issue found",
						"workspace_id", issue.WorkspaceID,
						"entity_id", issue.EntityID,
						"kind", issue.Kind,
						"message", issue.Message,
						"expected", issue.Expected,
						"actual", issue.Actual,
					)
				}
				total += len(result.Issues)
			}

			if total > 0 {
				return fmt.Errorf("DB consistency check found %d issue(s)", total)
			}

			logger.Info("DB consistency check passed")
			return nil
		},
	}
}
