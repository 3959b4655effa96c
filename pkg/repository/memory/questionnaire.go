package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
)

type questionnaireRepository struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

func newQuestionnaireRepository() *questionnaireRepository {
	return &questionnaireRepository{
		data: make(map[string]map[string][]byte),
	}
}

// Raw answers hold `any` values, so copies are made through JSON
func (r *questionnaireRepository) Put(ctx context.Context, workspaceID string, q *scoring.RawQuestionnaire) error {
	if q.ID == "" {
		return goerr.New("questionnaire ID is required")
	}

	raw, err := json.Marshal(q)
	if err != nil {
		return goerr.Wrap(err, "failed to encode questionnaire", goerr.V("questionnaire_id", q.ID))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[workspaceID]; !ok {
		r.data[workspaceID] = make(map[string][]byte)
	}
	if _, exists := r.data[workspaceID][q.ID]; exists {
		return goerr.Wrap(model.ErrQuestionnaireSubmitted, "questionnaire already stored", goerr.V("questionnaire_id", q.ID))
	}
	r.data[workspaceID][q.ID] = raw
	return nil
}

func (r *questionnaireRepository) Get(ctx context.Context, workspaceID string, id string) (*scoring.RawQuestionnaire, error) {
	r.mu.RLock()
	raw, ok := r.data[workspaceID][id]
	r.mu.RUnlock()

	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "questionnaire not found", goerr.V("questionnaire_id", id))
	}

	var q scoring.RawQuestionnaire
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, goerr.Wrap(err, "failed to decode questionnaire", goerr.V("questionnaire_id", id))
	}
	return &q, nil
}
