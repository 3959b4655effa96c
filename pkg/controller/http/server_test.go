package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	server "github.com/secmon-lab/themis/pkg/controller/http"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/repository/memory"
	"github.com/secmon-lab/themis/pkg/usecase"
)

const testWS = "grc"

type client struct {
	t       *testing.T
	handler http.Handler
	actor   string
}

func newClient(t *testing.T, opts ...server.Options) *client {
	t.Helper()
	uc := usecase.New(memory.New())
	return &client{t: t, handler: server.New(uc, opts...), actor: "U001"}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(c.t, json.NewEncoder(&buf).Encode(body)).Required()
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.actor != "" {
		req.Header.Set(server.HeaderActorID, c.actor)
		req.Header.Set(server.HeaderActorName, "Alice")
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &v)).Required()
	return v
}

type entityBody struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Score   *int   `json:"score"`
	Level   string `json:"risk_level"`
	History []struct {
		From    string `json:"from"`
		To      string `json:"to"`
		ActorID string `json:"actor_id"`
	} `json:"history"`
}

func (c *client) createVendor() entityBody {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities", map[string]any{
		"kind":  "vendor_assessment",
		"title": "ACME Cloud",
	})
	gt.Number(c.t, w.Code).Equal(http.StatusCreated)
	return decode[entityBody](c.t, w)
}

func TestServer_EntityLifecycle(t *testing.T) {
	c := newClient(t)
	created := c.createVendor()
	gt.Value(t, created.Status).Equal("draft")

	t.Run("get", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/ws/"+testWS+"/entities/"+created.ID, nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[entityBody](t, w).ID).Equal(created.ID)
	})

	t.Run("move along an edge", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+created.ID+"/move", map[string]string{"status": "sent"})
		gt.Number(t, w.Code).Equal(http.StatusOK)

		body := decode[entityBody](t, w)
		gt.Value(t, body.Status).Equal("sent")
		gt.Array(t, body.History).Length(1).Required()
		gt.Value(t, body.History[0].ActorID).Equal("U001")
	})

	t.Run("move without an edge is unprocessable", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+created.ID+"/move", map[string]string{"status": "approved"})
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("expired is reserved to the system", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+created.ID+"/transition", map[string]string{"status": "expired"})
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("transition with reason", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+created.ID+"/transition",
			map[string]string{"status": "in_progress", "reason": "vendor started"})
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[entityBody](t, w).Status).Equal("in_progress")
	})

	t.Run("audit trail", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/ws/"+testWS+"/entities/"+created.ID+"/audit", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)

		body := decode[struct {
			Records []model.AuditRecord `json:"records"`
		}](t, w)
		gt.Array(t, body.Records).Length(2).Required()
		gt.Value(t, string(body.Records[1].To)).Equal("in_progress")
	})

	t.Run("allowed statuses", func(t *testing.T) {
		w := c.do(http.MethodGet, "/api/ws/"+testWS+"/entities/"+created.ID+"/allowed", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)

		body := decode[struct {
			Statuses []string `json:"statuses"`
		}](t, w)
		gt.Array(t, body.Statuses).Has("completed")
	})
}

func TestServer_Errors(t *testing.T) {
	t.Run("unknown entity", func(t *testing.T) {
		c := newClient(t)
		w := c.do(http.MethodGet, "/api/ws/"+testWS+"/entities/missing", nil)
		gt.Number(t, w.Code).Equal(http.StatusNotFound)
	})

	t.Run("missing actor", func(t *testing.T) {
		c := newClient(t)
		created := c.createVendor()

		c.actor = ""
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+created.ID+"/move", map[string]string{"status": "sent"})
		gt.Number(t, w.Code).Equal(http.StatusUnauthorized)
	})

	t.Run("system actor is refused", func(t *testing.T) {
		c := newClient(t)
		c.actor = model.SystemActorID
		w := c.do(http.MethodGet, "/api/ws/"+testWS+"/entities", nil)
		gt.Number(t, w.Code).Equal(http.StatusForbidden)
	})

	t.Run("invalid body", func(t *testing.T) {
		c := newClient(t)
		req := httptest.NewRequest(http.MethodPost, "/api/ws/"+testWS+"/classify", bytes.NewBufferString("{"))
		w := httptest.NewRecorder()
		c.handler.ServeHTTP(w, req)
		gt.Number(t, w.Code).Equal(http.StatusBadRequest)
	})

	t.Run("empty title", func(t *testing.T) {
		c := newClient(t)
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities", map[string]any{"kind": "risk", "title": " "})
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("unknown board kind", func(t *testing.T) {
		c := newClient(t)
		w := c.do(http.MethodGet, "/api/ws/"+testWS+"/board/incident", nil)
		gt.Number(t, w.Code).Equal(http.StatusNotFound)
	})

	t.Run("unknown workspace with registry", func(t *testing.T) {
		registry := model.NewWorkspaceRegistry()
		registry.Register(&model.WorkspaceEntry{Workspace: model.Workspace{ID: testWS, Name: "GRC"}})
		c := newClient(t, server.WithWorkspaceRegistry(registry))

		w := c.do(http.MethodGet, "/api/ws/other/entities", nil)
		gt.Number(t, w.Code).Equal(http.StatusNotFound)

		w = c.do(http.MethodGet, "/api/ws/"+testWS+"/entities", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)

		w = c.do(http.MethodGet, "/api/workspaces", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Contains(`"id":"grc"`)
	})
}

func TestServer_Classify(t *testing.T) {
	c := newClient(t)

	type levelBody struct {
		RiskLevel string `json:"risk_level"`
	}

	t.Run("numeric", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/classify", map[string]int{"impact": 5, "likelihood": 5})
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[levelBody](t, w).RiskLevel).Equal("Muito Alto")
	})

	t.Run("labels", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/classify",
			map[string]string{"impact_label": "Baixo", "likelihood_label": "Rara"})
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[levelBody](t, w).RiskLevel).Equal("Muito Baixo")
	})

	t.Run("out of range", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/classify", map[string]int{"impact": 6, "likelihood": 1})
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)
	})

	t.Run("classify a risk entity", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/entities", map[string]any{"kind": "risk", "title": "Data leak"})
		gt.Number(t, w.Code).Equal(http.StatusCreated)
		risk := decode[entityBody](t, w)

		w = c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+risk.ID+"/classify", map[string]int{"impact": 3, "likelihood": 3})
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Value(t, decode[entityBody](t, w).Level).Equal("Médio")
	})
}

func TestServer_Score(t *testing.T) {
	c := newClient(t)
	questionnaire := map[string]any{
		"id": "q-1",
		"questions": []map[string]any{
			{"id": "mfa", "weight": 2, "type": "boolean", "value": true},
			{"id": "uptime", "weight": 1, "type": "numeric", "value": 80},
		},
	}

	t.Run("score raw answers", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/score", questionnaire)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Number(t, decode[map[string]int](t, w)["score"]).Equal(93)
	})

	t.Run("score an entity from its stored questionnaire", func(t *testing.T) {
		w := c.do(http.MethodPost, "/api/ws/"+testWS+"/questionnaires", questionnaire)
		gt.Number(t, w.Code).Equal(http.StatusCreated)

		w = c.do(http.MethodPost, "/api/ws/"+testWS+"/entities", map[string]any{
			"kind":             "vendor_assessment",
			"title":            "ACME",
			"questionnaire_id": "q-1",
		})
		gt.Number(t, w.Code).Equal(http.StatusCreated)
		vendor := decode[entityBody](t, w)

		w = c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+vendor.ID+"/score", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		body := decode[entityBody](t, w)
		gt.Value(t, body.Score).NotNil()
		gt.Number(t, *body.Score).Equal(93)

		changed := map[string]any{
			"id": "q-1",
			"questions": []map[string]any{
				{"id": "mfa", "weight": 2, "type": "boolean", "value": false},
			},
		}
		w = c.do(http.MethodPost, "/api/ws/"+testWS+"/questionnaires", changed)
		gt.Number(t, w.Code).Equal(http.StatusUnprocessableEntity)

		w = c.do(http.MethodPost, "/api/ws/"+testWS+"/entities/"+vendor.ID+"/score", nil)
		gt.Number(t, w.Code).Equal(http.StatusOK)
		gt.Number(t, *decode[entityBody](t, w).Score).Equal(93)
	})
}

func TestServer_Board(t *testing.T) {
	c := newClient(t)
	created := c.createVendor()

	w := c.do(http.MethodGet, "/api/ws/"+testWS+"/board/vendor_assessment", nil)
	gt.Number(t, w.Code).Equal(http.StatusOK)

	body := decode[struct {
		Kind    string `json:"kind"`
		Columns []struct {
			Status   string       `json:"status"`
			Terminal bool         `json:"terminal"`
			Entities []entityBody `json:"entities"`
		} `json:"columns"`
	}](t, w)
	gt.Value(t, body.Kind).Equal("vendor_assessment")
	gt.Array(t, body.Columns).Length(7).Required()
	gt.Value(t, body.Columns[0].Status).Equal("draft")
	gt.Array(t, body.Columns[0].Entities).Length(1).Required()
	gt.Value(t, body.Columns[0].Entities[0].ID).Equal(created.ID)
}
