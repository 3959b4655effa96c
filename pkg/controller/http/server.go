package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/usecase"
)

type Server struct {
	router            *chi.Mux
	uc                *usecase.UseCases
	workspaceRegistry *model.WorkspaceRegistry
}

type Options func(*Server)

// WithWorkspaceRegistry restricts /api/ws/{ws} routes to registered
// workspaces and enables the workspace list endpoint
func WithWorkspaceRegistry(registry *model.WorkspaceRegistry) Options {
	return func(s *Server) {
		s.workspaceRegistry = registry
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	// Workspace list endpoint
	if s.workspaceRegistry != nil {
		r.Get("/api/workspaces", workspacesHandler(s.workspaceRegistry))
	}

	r.Route("/api/ws/{ws}", func(r chi.Router) {
		r.Use(workspaceMiddleware(s.workspaceRegistry))
		r.Use(actorMiddleware)

		r.Get("/board/{kind}", s.getBoard)
		r.Post("/classify", s.classify)
		r.Post("/score", s.scoreQuestionnaire)
		r.Post("/questionnaires", s.submitQuestionnaire)

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.listEntities)
			r.With(requireActor).Post("/", s.createEntity)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getEntity)
				r.Get("/allowed", s.allowedStatuses)
				r.Get("/audit", s.listAudit)
				r.With(requireActor).Post("/move", s.moveEntity)
				r.With(requireActor).Post("/transition", s.transitionEntity)
				r.With(requireActor).Post("/classify", s.classifyEntity)
				r.With(requireActor).Post("/score", s.scoreEntity)
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// workspacesHandler returns a handler that serves the workspace list as JSON
func workspacesHandler(registry *model.WorkspaceRegistry) http.HandlerFunc {
	type workspaceResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	type response struct {
		Workspaces []workspaceResponse `json:"workspaces"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		workspaces := registry.Workspaces()
		resp := response{
			Workspaces: make([]workspaceResponse, len(workspaces)),
		}
		for i, ws := range workspaces {
			resp.Workspaces[i] = workspaceResponse{
				ID:   ws.ID,
				Name: ws.Name,
			}
		}
		writeJSON(w, r, http.StatusOK, resp)
	}
}
