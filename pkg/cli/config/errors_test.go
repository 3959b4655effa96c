package config_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/cli/config"
)

func TestConfigErrors_SentinelIdentification(t *testing.T) {
	sentinels := []error{
		config.ErrConfigNotFound,
		config.ErrInvalidConfig,
		config.ErrDuplicateWorkspace,
		config.ErrDuplicateLevelID,
		config.ErrInvalidLevelScore,
		config.ErrLevelCountMismatch,
		config.ErrConflictingScoring,
		config.ErrUnknownNotification,
		config.ErrMissingName,
	}

	for i, sentinel := range sentinels {
		wrapped := goerr.Wrap(sentinel, "context", goerr.V(config.ConfigPathKey, "/tmp/x.toml"))
		gt.Bool(t, errors.Is(wrapped, sentinel)).True()

		for j, other := range sentinels {
			if i != j {
				gt.Bool(t, errors.Is(wrapped, other)).False()
			}
		}
	}
}

func TestConfigErrors_Values(t *testing.T) {
	err := goerr.Wrap(config.ErrDuplicateLevelID, "duplicate",
		goerr.V(config.LevelIDKey, "high"),
		goerr.V(config.ConfigPathKey, "/etc/themis/grc.toml"))

	var ge *goerr.Error
	gt.Bool(t, errors.As(err, &ge)).True()
	gt.Value(t, ge.Values()[config.LevelIDKey]).Equal("high")
	gt.Value(t, ge.Values()[config.ConfigPathKey]).Equal("/etc/themis/grc.toml")
}
