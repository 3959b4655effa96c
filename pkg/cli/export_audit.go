package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/service/archive"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/secmon-lab/themis/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdExportAudit() *cli.Command {
	var workspaceID string
	var object string
	var repoCfg config.Repository
	var storageCfg config.Storage

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "workspace",
			Aliases:     []string{"w"},
			Usage:       "Workspace ID to export",
			Required:    true,
			Destination: &workspaceID,
		},
		&cli.StringFlag{
			Name:        "object",
			Usage:       "Object name in the bucket (default: audit/{workspace}/{timestamp}.jsonl)",
			Destination: &object,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)

	return &cli.Command{
		Name:  "export-audit",
		Usage: "Export the audit trail of a workspace to Cloud Storage as JSON Lines",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			sink, closeStorage, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, safe.CloseFunc(closeStorage))

			name, n, err := archive.New(repo, sink).Export(ctx, workspaceID, object)
			if err != nil {
				return goerr.Wrap(err, "failed to export audit records", goerr.V("workspace_id", workspaceID))
			}

			logging.Default().Info("Audit export completed",
				"workspace_id", workspaceID,
				"object", name,
				"records", n)
			return nil
		},
	}
}
