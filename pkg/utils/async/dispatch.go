package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
)

// Dispatch runs handler in a new goroutine. The handler context keeps the
// values of ctx (logger, Sentry hub) but is not cancelled with it, so the
// work outlives the request that started it.
func Dispatch(ctx context.Context, name string, handler func(ctx context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				_ = errutil.Handle(bgCtx, goerr.New("panic in async handler", goerr.V("panic", r)), name)
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, name)
		}
	}()
}
