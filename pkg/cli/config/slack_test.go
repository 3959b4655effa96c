package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/model"
)

func TestSlack_Configure(t *testing.T) {
	registry := model.NewWorkspaceRegistry()
	registry.Register(&model.WorkspaceEntry{
		Workspace:      model.Workspace{ID: "grc", Name: "GRC"},
		NotifyChannels: map[string]string{"risk_closed": "risk-board"},
	})

	t.Run("disabled without token", func(t *testing.T) {
		slack := config.NewSlackForTest("", "#grc")
		gt.Bool(t, slack.IsConfigured()).False()

		n, err := slack.Configure(registry)
		gt.NoError(t, err).Required()
		gt.Value(t, n).Nil()
	})

	t.Run("channel is required with token", func(t *testing.T) {
		slack := config.NewSlackForTest("xoxb-test", "")
		_, err := slack.Configure(registry)
		gt.Value(t, err).NotNil()
	})

	t.Run("notifier is created", func(t *testing.T) {
		slack := config.NewSlackForTest("xoxb-test", "#grc")
		n, err := slack.Configure(registry)
		gt.NoError(t, err).Required()
		gt.Value(t, n).NotNil()
	})
}
