package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"google.golang.org/api/iterator"
)

// entityDoc is the Firestore document representation of model.WorkflowEntity
type entityDoc struct {
	ID              string          `firestore:"id"`
	Kind            string          `firestore:"kind"`
	Title           string          `firestore:"title"`
	Description     string          `firestore:"description"`
	Status          string          `firestore:"status"`
	Priority        string          `firestore:"priority"`
	DueDate         *time.Time      `firestore:"due_date"`
	AssigneeID      string          `firestore:"assignee_id"`
	ContactID       string          `firestore:"contact_id"`
	QuestionnaireID string          `firestore:"questionnaire_id"`
	RiskIDs         []string        `firestore:"risk_ids"`
	AssessmentIDs   []string        `firestore:"assessment_ids"`
	ActionPlanIDs   []string        `firestore:"action_plan_ids"`
	GapIDs          []string        `firestore:"gap_ids"`
	Score           *int64          `firestore:"score"`
	Impact          int64           `firestore:"impact"`
	Likelihood      int64           `firestore:"likelihood"`
	RiskLevel       string          `firestore:"risk_level"`
	History         []transitionDoc `firestore:"history"`
	CreatedAt       time.Time       `firestore:"created_at"`
	UpdatedAt       time.Time       `firestore:"updated_at"`
}

type transitionDoc struct {
	From      string    `firestore:"from"`
	To        string    `firestore:"to"`
	ActorID   string    `firestore:"actor_id"`
	System    bool      `firestore:"system"`
	Timestamp time.Time `firestore:"timestamp"`
	Reason    string    `firestore:"reason"`
}

func toEntityDoc(e *model.WorkflowEntity) *entityDoc {
	doc := &entityDoc{
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
		RiskIDs:         idsToStrings(e.Refs.RiskIDs),
		AssessmentIDs:   idsToStrings(e.Refs.AssessmentIDs),
		ActionPlanIDs:   idsToStrings(e.Refs.ActionPlanIDs),
		GapIDs:          e.Refs.GapIDs,
		Impact:          int64(e.Impact),
		Likelihood:      int64(e.Likelihood),
		RiskLevel:       e.RiskLevel.String(),
		History:         toTransitionDocs(e.History),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	if e.Score != nil {
		s := int64(*e.Score)
		doc.Score = &s
	}
	return doc
}

func fromEntityDoc(d *entityDoc) *model.WorkflowEntity {
	e := &model.WorkflowEntity{
		ID:              model.EntityID(d.ID),
		Kind:            types.EntityKind(d.Kind),
		Title:           d.Title,
		Description:     d.Description,
		Status:          types.Status(d.Status),
		Priority:        types.Priority(d.Priority),
		DueDate:         d.DueDate,
		AssigneeID:      d.AssigneeID,
		ContactID:       d.ContactID,
		QuestionnaireID: d.QuestionnaireID,
		Refs: model.Refs{
			RiskIDs:       stringsToIDs(d.RiskIDs),
			AssessmentIDs: stringsToIDs(d.AssessmentIDs),
			ActionPlanIDs: stringsToIDs(d.ActionPlanIDs),
			GapIDs:        d.GapIDs,
		},
		Impact:     int(d.Impact),
		Likelihood: int(d.Likelihood),
		RiskLevel:  types.RiskLevel(d.RiskLevel),
		History:    make([]model.StatusTransition, len(d.History)),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if d.Score != nil {
		s := int(*d.Score)
		e.Score = &s
	}
	for i, h := range d.History {
		e.History[i] = model.StatusTransition{
			From:      types.Status(h.From),
			To:        types.Status(h.To),
			ActorID:   h.ActorID,
			System:    h.System,
			Timestamp: h.Timestamp,
			Reason:    h.Reason,
		}
	}
	return e
}

func toTransitionDocs(history []model.StatusTransition) []transitionDoc {
	docs := make([]transitionDoc, len(history))
	for i, h := range history {
		docs[i] = transitionDoc{
			From:      h.From.String(),
			To:        h.To.String(),
			ActorID:   h.ActorID,
			System:    h.System,
			Timestamp: h.Timestamp,
			Reason:    h.Reason,
		}
	}
	return docs
}

func idsToStrings(ids []model.EntityID) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func stringsToIDs(s []string) []model.EntityID {
	if s == nil {
		return nil
	}
	out := make([]model.EntityID, len(s))
	for i, v := range s {
		out[i] = model.EntityID(v)
	}
	return out
}

type entityRepository struct {
	client *firestore.Client
	root   string
}

func newEntityRepository(client *firestore.Client) *entityRepository {
	return &entityRepository{
		client: client,
		root:   defaultRoot,
	}
}

func (r *entityRepository) collection(workspaceID string) *firestore.CollectionRef {
	return workspaceCollection(r.client, r.root, workspaceID, "entities")
}

func (r *entityRepository) Create(ctx context.Context, workspaceID string, entity *model.WorkflowEntity) (*model.WorkflowEntity, error) {
	if entity.ID == "" {
		return nil, goerr.New("entity ID is required")
	}

	now := time.Now().UTC()
	created := entity.Clone()
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	docRef := r.collection(workspaceID).Doc(created.ID.String())
	if _, err := docRef.Create(ctx, toEntityDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create entity", goerr.V(model.EntityIDKey, created.ID))
	}

	return created, nil
}

func (r *entityRepository) Get(ctx context.Context, workspaceID string, id model.EntityID) (*model.WorkflowEntity, error) {
	docSnap, err := r.collection(workspaceID).Doc(id.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V(model.EntityIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get entity", goerr.V(model.EntityIDKey, id))
	}

	var d entityDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode entity", goerr.V(model.EntityIDKey, id))
	}

	return fromEntityDoc(&d), nil
}

func (r *entityRepository) List(ctx context.Context, workspaceID string) ([]*model.WorkflowEntity, error) {
	return r.query(ctx, r.collection(workspaceID).OrderBy("created_at", firestore.Asc))
}

func (r *entityRepository) ListByKind(ctx context.Context, workspaceID string, kind types.EntityKind) ([]*model.WorkflowEntity, error) {
	q := r.collection(workspaceID).
		Where("kind", "==", kind.String()).
		OrderBy("created_at", firestore.Asc)
	return r.query(ctx, q)
}

func (r *entityRepository) query(ctx context.Context, q firestore.Query) ([]*model.WorkflowEntity, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	entities := make([]*model.WorkflowEntity, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate entities")
		}

		var d entityDoc
		if err := docSnap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode entity", goerr.V("doc_id", docSnap.Ref.ID))
		}
		entities = append(entities, fromEntityDoc(&d))
	}

	return entities, nil
}

func (r *entityRepository) UpdateStatus(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, expectedPrevious types.Status) (*model.WorkflowEntity, error) {
	docRef := r.collection(workspaceID).Doc(entity.ID.String())

	var updated *model.WorkflowEntity
	var actual string
	var storedLen int
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if isNotFound(err) {
				return goerr.Wrap(ErrNotFound, "entity not found", goerr.V(model.EntityIDKey, entity.ID))
			}
			return goerr.Wrap(err, "failed to get entity")
		}

		var d entityDoc
		if err := docSnap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode entity")
		}
		if d.Status != expectedPrevious.String() {
			actual = d.Status
			return errStatusConflict
		}
		// the caller must hold exactly the stored history plus one new entry
		if len(entity.History) != len(d.History)+1 {
			storedLen = len(d.History)
			return errHistoryConflict
		}

		now := time.Now().UTC()
		history := append(d.History, toTransitionDocs(entity.History[len(entity.History)-1:])...)
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "status", Value: entity.Status.String()},
			{Path: "history", Value: history},
			{Path: "updated_at", Value: now},
		}); err != nil {
			return goerr.Wrap(err, "failed to update entity status")
		}

		d.Status = entity.Status.String()
		d.History = history
		d.UpdatedAt = now
		updated = fromEntityDoc(&d)
		return nil
	}, firestore.MaxAttempts(3))

	if errors.Is(err, errStatusConflict) {
		return nil, goerr.Wrap(model.ErrPersistenceConflict, "stored status differs from expected",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V("expected_status", expectedPrevious),
			goerr.V("actual_status", actual))
	}
	if errors.Is(err, errHistoryConflict) {
		return nil, goerr.Wrap(model.ErrPersistenceConflict, "stored history differs from expected",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V("expected_history_length", len(entity.History)-1),
			goerr.V("actual_history_length", storedLen))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update entity status", goerr.V(model.EntityIDKey, entity.ID))
	}

	return updated, nil
}

func (r *entityRepository) UpdateScore(ctx context.Context, workspaceID string, entity *model.WorkflowEntity) (*model.WorkflowEntity, error) {
	docRef := r.collection(workspaceID).Doc(entity.ID.String())

	var score any
	if entity.Score != nil {
		score = int64(*entity.Score)
	}

	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "score", Value: score},
		{Path: "impact", Value: int64(entity.Impact)},
		{Path: "likelihood", Value: int64(entity.Likelihood)},
		{Path: "risk_level", Value: entity.RiskLevel.String()},
		{Path: "updated_at", Value: time.Now().UTC()},
	})
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "entity not found", goerr.V(model.EntityIDKey, entity.ID))
		}
		return nil, goerr.Wrap(err, "failed to update entity score", goerr.V(model.EntityIDKey, entity.ID))
	}

	return r.Get(ctx, workspaceID, entity.ID)
}
