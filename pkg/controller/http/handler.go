package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
)

// statusOf maps domain errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrWorkspaceNotFound):
		return http.StatusNotFound

	case errors.Is(err, model.ErrPersistenceConflict),
		errors.Is(err, model.ErrMoveInFlight):
		return http.StatusConflict

	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrUnsupportedGrid),
		errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrQuestionnaireSubmitted),
		errors.Is(err, usecase.ErrNotRisk),
		errors.Is(err, usecase.ErrNoQuestionnaire):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return false
	}
	return true
}

func workspaceID(r *http.Request) string {
	return chi.URLParam(r, "ws")
}

func entityID(r *http.Request) model.EntityID {
	return model.EntityID(chi.URLParam(r, "id"))
}

func (s *Server) getBoard(w http.ResponseWriter, r *http.Request) {
	kind, err := types.ParseEntityKind(chi.URLParam(r, "kind"))
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid board kind"), http.StatusNotFound)
		return
	}

	board, err := s.uc.Board.Load(r.Context(), workspaceID(r), kind)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toBoardResponse(board))
}

type createEntityRequest struct {
	Kind            string     `json:"kind"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Priority        string     `json:"priority"`
	DueDate         *time.Time `json:"due_date"`
	AssigneeID      string     `json:"assignee_id"`
	ContactID       string     `json:"contact_id"`
	QuestionnaireID string     `json:"questionnaire_id"`
	RiskIDs         []string   `json:"risk_ids"`
	AssessmentIDs   []string   `json:"assessment_ids"`
	ActionPlanIDs   []string   `json:"action_plan_ids"`
	GapIDs          []string   `json:"gap_ids"`
	Impact          int        `json:"impact"`
	Likelihood      int        `json:"likelihood"`
}

func (s *Server) createEntity(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entity, err := s.uc.Entity.Create(r.Context(), workspaceID(r), usecase.CreateEntityInput{
		Kind:            types.EntityKind(req.Kind),
		Title:           req.Title,
		Description:     req.Description,
		Priority:        types.Priority(req.Priority),
		DueDate:         req.DueDate,
		AssigneeID:      req.AssigneeID,
		ContactID:       req.ContactID,
		QuestionnaireID: req.QuestionnaireID,
		Refs: model.Refs{
			RiskIDs:       stringsToIDs(req.RiskIDs),
			AssessmentIDs: stringsToIDs(req.AssessmentIDs),
			ActionPlanIDs: stringsToIDs(req.ActionPlanIDs),
			GapIDs:        req.GapIDs,
		},
		Impact:     req.Impact,
		Likelihood: req.Likelihood,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toEntityResponse(entity))
}

func (s *Server) listEntities(w http.ResponseWriter, r *http.Request) {
	var kind types.EntityKind
	if q := r.URL.Query().Get("kind"); q != "" {
		k, err := types.ParseEntityKind(q)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid kind"), http.StatusBadRequest)
			return
		}
		kind = k
	}

	entities, err := s.uc.Entity.List(r.Context(), workspaceID(r), kind)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"entities": toEntityResponses(entities)})
}

func (s *Server) getEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := s.uc.Entity.Get(r.Context(), workspaceID(r), entityID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntityResponse(entity))
}

func (s *Server) allowedStatuses(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		actor = model.UserActor("", "")
	}

	allowed, err := s.uc.Entity.Allowed(r.Context(), workspaceID(r), entityID(r), actor)
	if err != nil {
		handleError(w, r, err)
		return
	}

	statuses := make([]string, len(allowed))
	for i, st := range allowed {
		statuses[i] = st.String()
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"statuses": statuses})
}

func (s *Server) listAudit(w http.ResponseWriter, r *http.Request) {
	records, err := s.uc.Entity.ListAudit(r.Context(), workspaceID(r), entityID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if records == nil {
		records = []*model.AuditRecord{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"records": records})
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s *Server) moveEntity(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := actorFromContext(r.Context())

	entity, err := s.uc.Board.Move(r.Context(), workspaceID(r), entityID(r), types.Status(req.Status), actor)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntityResponse(entity))
}

func (s *Server) transitionEntity(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, _ := actorFromContext(r.Context())

	entity, err := s.uc.Entity.Transition(r.Context(), workspaceID(r), entityID(r), types.Status(req.Status), actor, req.Reason)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntityResponse(entity))
}

type classifyRequest struct {
	Impact          int    `json:"impact"`
	Likelihood      int    `json:"likelihood"`
	ImpactLabel     string `json:"impact_label"`
	LikelihoodLabel string `json:"likelihood_label"`
}

type classifyResponse struct {
	RiskLevel string `json:"risk_level"`
	Emoji     string `json:"emoji"`
}

func (s *Server) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		level types.RiskLevel
		err   error
	)
	if req.ImpactLabel != "" || req.LikelihoodLabel != "" {
		level, err = s.uc.Entity.ClassifyLabels(r.Context(), workspaceID(r), req.ImpactLabel, req.LikelihoodLabel)
	} else {
		level, err = s.uc.Entity.Classify(r.Context(), workspaceID(r), req.Impact, req.Likelihood)
	}
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, classifyResponse{RiskLevel: level.String(), Emoji: level.Emoji()})
}

func (s *Server) classifyEntity(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entity, err := s.uc.Entity.ClassifyRisk(r.Context(), workspaceID(r), entityID(r), req.Impact, req.Likelihood)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntityResponse(entity))
}

func (s *Server) scoreQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var raw scoring.RawQuestionnaire
	if !decodeJSON(w, r, &raw) {
		return
	}

	score, err := s.uc.Entity.ScoreQuestionnaire(&raw)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]int{"score": score})
}

func (s *Server) submitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var raw scoring.RawQuestionnaire
	if !decodeJSON(w, r, &raw) {
		return
	}

	if err := s.uc.Entity.SubmitQuestionnaire(r.Context(), workspaceID(r), &raw); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]string{"id": raw.ID})
}

func (s *Server) scoreEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := s.uc.Entity.Score(r.Context(), workspaceID(r), entityID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toEntityResponse(entity))
}
