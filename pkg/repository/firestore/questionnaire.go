package firestore

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
)

// questionnaireDoc keeps raw answers as JSON. Firestore would otherwise turn
// numeric answers into int64 or float64 depending on their value.
type questionnaireDoc struct {
	ID      string `firestore:"id"`
	Title   string `firestore:"title"`
	Payload string `firestore:"payload"`
}

type questionnaireRepository struct {
	client *firestore.Client
	root   string
}

func newQuestionnaireRepository(client *firestore.Client) *questionnaireRepository {
	return &questionnaireRepository{
		client: client,
		root:   defaultRoot,
	}
}

func (r *questionnaireRepository) collection(workspaceID string) *firestore.CollectionRef {
	return workspaceCollection(r.client, r.root, workspaceID, "questionnaires")
}

func (r *questionnaireRepository) Put(ctx context.Context, workspaceID string, q *scoring.RawQuestionnaire) error {
	if q.ID == "" {
		return goerr.New("questionnaire ID is required")
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return goerr.Wrap(err, "failed to encode questionnaire", goerr.V("questionnaire_id", q.ID))
	}

	doc := &questionnaireDoc{ID: q.ID, Title: q.Title, Payload: string(payload)}
	if _, err := r.collection(workspaceID).Doc(q.ID).Create(ctx, doc); err != nil {
		if isAlreadyExists(err) {
			return goerr.Wrap(model.ErrQuestionnaireSubmitted, "questionnaire already stored", goerr.V("questionnaire_id", q.ID))
		}
		return goerr.Wrap(err, "failed to put questionnaire", goerr.V("questionnaire_id", q.ID))
	}
	return nil
}

func (r *questionnaireRepository) Get(ctx context.Context, workspaceID string, id string) (*scoring.RawQuestionnaire, error) {
	docSnap, err := r.collection(workspaceID).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "questionnaire not found", goerr.V("questionnaire_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get questionnaire", goerr.V("questionnaire_id", id))
	}

	var d questionnaireDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode questionnaire", goerr.V("questionnaire_id", id))
	}

	var q scoring.RawQuestionnaire
	if err := json.Unmarshal([]byte(d.Payload), &q); err != nil {
		return nil, goerr.Wrap(err, "failed to decode questionnaire payload", goerr.V("questionnaire_id", id))
	}
	return &q, nil
}
