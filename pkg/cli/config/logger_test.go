package config

import (
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

func TestLogger_Configure(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	t.Run("file output", func(t *testing.T) {
		x := &Logger{level: "debug", format: "json", output: filepath.Join(t.TempDir(), "themis.log")}
		closer, err := x.Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level", func(t *testing.T) {
		x := &Logger{level: "verbose", format: "console", output: "stdout"}
		_, err := x.Configure()
		gt.Value(t, err).NotNil()
	})

	t.Run("invalid format", func(t *testing.T) {
		x := &Logger{level: "info", format: "xml", output: "stdout"}
		_, err := x.Configure()
		gt.Value(t, err).NotNil()
	})
}
