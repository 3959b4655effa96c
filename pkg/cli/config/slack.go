package config

import (
	"log/slog"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken string
	channel  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (for posting notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("THEMIS_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Default Slack channel for notifications (ID or name)",
			Category:    "Slack",
			Destination: &x.channel,
			Sources:     cli.EnvVars("THEMIS_SLACK_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channel),
	)
}

// IsConfigured returns true when notifications can be posted
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure creates a Slack notifier routing templates per workspace as
// configured in the registry. It returns nil when no bot token is set.
func (x *Slack) Configure(registry *model.WorkspaceRegistry) (interfaces.Notifier, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	if x.channel == "" {
		return nil, goerr.New("slack-channel is required when slack-bot-token is set")
	}

	notifier, err := slack.New(x.botToken, x.channel, x.channelOptions(registry)...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack notifier")
	}
	return notifier, nil
}

func (x *Slack) channelOptions(registry *model.WorkspaceRegistry) []slack.Option {
	if registry == nil {
		return nil
	}

	var opts []slack.Option
	for _, entry := range registry.List() {
		templateIDs := make([]string, 0, len(entry.NotifyChannels))
		for id := range entry.NotifyChannels {
			templateIDs = append(templateIDs, id)
		}
		sort.Strings(templateIDs)

		for _, id := range templateIDs {
			opts = append(opts, slack.WithWorkspaceChannel(entry.Workspace.ID, id, entry.NotifyChannels[id]))
		}
	}
	return opts
}
