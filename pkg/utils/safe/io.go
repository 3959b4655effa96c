package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// Close closes an io.Closer on a path where the close error cannot change
// the outcome anymore, and logs the error. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer, attrs ...any) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		args := append([]any{slog.Any("error", err)}, attrs...)
		logging.From(ctx).Error("Failed to close", args...)
	}
}

// CloseFunc adapts a close function with no arguments, such as a client's
// Close method, to Close
type CloseFunc func() error

func (f CloseFunc) Close() error {
	return f()
}
