package safe_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/secmon-lab/themis/pkg/utils/safe"
)

func TestClose(t *testing.T) {
	t.Run("nil closer", func(t *testing.T) {
		safe.Close(context.Background(), nil)
	})

	t.Run("close error is logged", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

		called := false
		safe.Close(ctx, safe.CloseFunc(func() error {
			called = true
			return errors.New("broken pipe")
		}), "object", "audit.jsonl")

		gt.Bool(t, called).True()
		gt.String(t, buf.String()).Contains("broken pipe")
		gt.String(t, buf.String()).Contains("audit.jsonl")
	})

	t.Run("successful close logs nothing", func(t *testing.T) {
		var buf bytes.Buffer
		ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

		safe.Close(ctx, safe.CloseFunc(func() error { return nil }))
		gt.Number(t, buf.Len()).Equal(0)
	})
}
