package config

import (
	"context"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/service/archive"
	"github.com/urfave/cli/v3"
)

// Storage holds CLI flags for the audit archive bucket
type Storage struct {
	bucket string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving audit archives",
			Category:    "Archive",
			Required:    true,
			Destination: &x.bucket,
			Sources:     cli.EnvVars("THEMIS_ARCHIVE_BUCKET"),
		},
	}
}

// Configure creates the archive sink. The returned function closes the
// storage client.
func (x *Storage) Configure(ctx context.Context) (*archive.GCSSink, func() error, error) {
	if x.bucket == "" {
		return nil, nil, goerr.New("archive-bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create Cloud Storage client")
	}

	return archive.NewGCSSink(client, x.bucket), client.Close, nil
}
