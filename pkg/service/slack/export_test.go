package slack

import "github.com/slack-go/slack"

// NewWithAPI creates a Notifier on top of a fake Slack API for testing
func NewWithAPI(client api, defaultChannel string, opts ...Option) (*Notifier, error) {
	return newNotifier(client, defaultChannel, opts...)
}

// BuildMessage is exported for testing
func BuildMessage(templateID, mention string, payload map[string]string) ([]slack.Block, string) {
	return buildMessage(templateID, mention, payload)
}
