package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/usecase"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
)

type refsResponse struct {
	RiskIDs       []string `json:"risk_ids"`
	AssessmentIDs []string `json:"assessment_ids"`
	ActionPlanIDs []string `json:"action_plan_ids"`
	GapIDs        []string `json:"gap_ids"`
}

type transitionResponse struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	ActorID   string    `json:"actor_id"`
	System    bool      `json:"system"`
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason,omitempty"`
}

type entityResponse struct {
	ID              string               `json:"id"`
	Kind            string               `json:"kind"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Status          string               `json:"status"`
	Priority        string               `json:"priority"`
	DueDate         *time.Time           `json:"due_date,omitempty"`
	AssigneeID      string               `json:"assignee_id,omitempty"`
	ContactID       string               `json:"contact_id,omitempty"`
	QuestionnaireID string               `json:"questionnaire_id,omitempty"`
	Refs            refsResponse         `json:"refs"`
	Score           *int                 `json:"score,omitempty"`
	Impact          int                  `json:"impact,omitempty"`
	Likelihood      int                  `json:"likelihood,omitempty"`
	RiskLevel       string               `json:"risk_level,omitempty"`
	History         []transitionResponse `json:"history"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type boardColumnResponse struct {
	Status   string           `json:"status"`
	Terminal bool             `json:"terminal"`
	Entities []entityResponse `json:"entities"`
}

type boardResponse struct {
	Kind    string                `json:"kind"`
	Columns []boardColumnResponse `json:"columns"`
}

func idsToStrings(ids []model.EntityID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToIDs(s []string) []model.EntityID {
	if len(s) == 0 {
		return nil
	}
	out := make([]model.EntityID, len(s))
	for i, id := range s {
		out[i] = model.EntityID(id)
	}
	return out
}

func toEntityResponse(e *model.WorkflowEntity) entityResponse {
	history := make([]transitionResponse, len(e.History))
	for i, h := range e.History {
		history[i] = transitionResponse{
			From:      h.From.String(),
			To:        h.To.String(),
			ActorID:   h.ActorID,
			System:    h.System,
			Timestamp: h.Timestamp,
			Reason:    h.Reason,
		}
	}

	gaps := e.Refs.GapIDs
	if gaps == nil {
		gaps = []string{}
	}

	return entityResponse{
		ID:              e.ID.String(),
		Kind:            e.Kind.String(),
		Title:           e.Title,
		Description:     e.Description,
		Status:          e.Status.String(),
		Priority:        e.Priority.String(),
		DueDate:         e.DueDate,
		AssigneeID:      e.AssigneeID,
		ContactID:       e.ContactID,
		QuestionnaireID: e.QuestionnaireID,
		Refs: refsResponse{
			RiskIDs:       idsToStrings(e.Refs.RiskIDs),
			AssessmentIDs: idsToStrings(e.Refs.AssessmentIDs),
			ActionPlanIDs: idsToStrings(e.Refs.ActionPlanIDs),
			GapIDs:        gaps,
		},
		Score:      e.Score,
		Impact:     e.Impact,
		Likelihood: e.Likelihood,
		RiskLevel:  e.RiskLevel.String(),
		History:    history,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toEntityResponses(entities []*model.WorkflowEntity) []entityResponse {
	out := make([]entityResponse, len(entities))
	for i, e := range entities {
		out[i] = toEntityResponse(e)
	}
	return out
}

func toBoardResponse(b *usecase.Board) boardResponse {
	resp := boardResponse{
		Kind:    b.Kind.String(),
		Columns: make([]boardColumnResponse, len(b.Columns)),
	}
	for i, col := range b.Columns {
		resp.Columns[i] = boardColumnResponse{
			Status:   col.Status.String(),
			Terminal: col.Terminal,
			Entities: toEntityResponses(col.Entities),
		}
	}
	return resp
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}
