package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

const (
	// HeaderActorID identifies the user requesting a change. Authentication
	// is done by the proxy in front of the service.
	HeaderActorID   = "X-Themis-Actor-Id"
	HeaderActorName = "X-Themis-Actor-Name"
)

type actorCtxKey struct{}

func actorFromContext(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(model.Actor)
	return actor, ok
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// workspaceMiddleware rejects unknown workspaces. Without a registry every
// workspace ID is accepted.
func workspaceMiddleware(registry *model.WorkspaceRegistry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wsID := chi.URLParam(r, "ws")
			if registry != nil {
				if _, err := registry.Get(wsID); err != nil {
					errutil.HandleHTTP(r.Context(), w, err, http.StatusNotFound)
					return
				}
			}

			ctx := logging.With(r.Context(), logging.From(r.Context()).With("workspace_id", wsID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorMiddleware reads the acting user from request headers
func actorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderActorID))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		// time-triggered transitions are reserved to the service itself
		if id == model.SystemActorID {
			errutil.HandleHTTP(r.Context(), w,
				goerr.New("system actor cannot be used by clients"), http.StatusForbidden)
			return
		}

		actor := model.UserActor(id, strings.TrimSpace(r.Header.Get(HeaderActorName)))
		ctx := context.WithValue(r.Context(), actorCtxKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireActor rejects mutations without an acting user
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := actorFromContext(r.Context()); !ok {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
