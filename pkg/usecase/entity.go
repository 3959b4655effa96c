package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/lifecycle"
	"github.com/secmon-lab/themis/pkg/domain/matrix"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

type EntityUseCase struct {
	repo         interfaces.Repository
	engine       *lifecycle.Engine
	aggregator   *scoring.Aggregator
	matrixSource interfaces.MatrixConfigSource
	tr           *transitioner
	lock         *EntityLock
}

func NewEntityUseCase(repo interfaces.Repository, engine *lifecycle.Engine, aggregator *scoring.Aggregator, matrixSource interfaces.MatrixConfigSource, intents *IntentExecutor, lock *EntityLock) *EntityUseCase {
	return &EntityUseCase{
		repo:         repo,
		engine:       engine,
		aggregator:   aggregator,
		matrixSource: matrixSource,
		tr:           &transitioner{repo: repo, engine: engine, intents: intents},
		lock:         lock,
	}
}

// CreateEntityInput holds the user supplied fields of a new entity
type CreateEntityInput struct {
	Kind            types.EntityKind
	Title           string
	Description     string
	Priority        types.Priority
	DueDate         *time.Time
	AssigneeID      string
	ContactID       string
	QuestionnaireID string
	Refs            model.Refs

	// Impact and Likelihood classify a risk on creation when both are set
	Impact     int
	Likelihood int
}

func (uc *EntityUseCase) Create(ctx context.Context, workspaceID string, input CreateEntityInput) (*model.WorkflowEntity, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, goerr.Wrap(model.ErrValidation, "title is required")
	}
	if !input.Kind.IsValid() {
		return nil, goerr.Wrap(model.ErrValidation, "invalid entity kind", goerr.V(model.EntityKindKey, input.Kind))
	}

	entity, err := uc.engine.NewEntity(input.Kind, title)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize entity")
	}
	entity.Description = input.Description
	entity.Priority = input.Priority.Normalize()
	entity.DueDate = input.DueDate
	entity.AssigneeID = input.AssigneeID
	entity.ContactID = input.ContactID
	entity.QuestionnaireID = input.QuestionnaireID
	entity.Refs = input.Refs

	if input.Kind == types.EntityKindRisk && input.Impact > 0 && input.Likelihood > 0 {
		level, err := uc.Classify(ctx, workspaceID, input.Impact, input.Likelihood)
		if err != nil {
			return nil, err
		}
		entity.Impact = input.Impact
		entity.Likelihood = input.Likelihood
		entity.RiskLevel = level
	}

	created, err := uc.repo.Entity().Create(ctx, workspaceID, entity)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create entity", goerr.V(model.EntityKindKey, input.Kind))
	}
	return created, nil
}

func (uc *EntityUseCase) Get(ctx context.Context, workspaceID string, id model.EntityID) (*model.WorkflowEntity, error) {
	entity, err := uc.repo.Entity().Get(ctx, workspaceID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get entity", goerr.V(model.EntityIDKey, id))
	}
	return entity, nil
}

// List returns entities of kind, or all entities when kind is empty
func (uc *EntityUseCase) List(ctx context.Context, workspaceID string, kind types.EntityKind) ([]*model.WorkflowEntity, error) {
	if kind == "" {
		return uc.repo.Entity().List(ctx, workspaceID)
	}
	return uc.repo.Entity().ListByKind(ctx, workspaceID, kind)
}

// Transition changes the status of an entity outside of a board, e.g. from
// an action button. It waits for any board move of the same entity.
func (uc *EntityUseCase) Transition(ctx context.Context, workspaceID string, id model.EntityID, to types.Status, actor model.Actor, reason string) (*model.WorkflowEntity, error) {
	release, err := uc.lock.Acquire(ctx, workspaceID, id, false)
	if err != nil {
		return nil, err
	}
	defer release()

	entity, err := uc.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	return uc.tr.apply(ctx, workspaceID, entity, to, actor, reason)
}

// Allowed lists the statuses actor may move the entity to
func (uc *EntityUseCase) Allowed(ctx context.Context, workspaceID string, id model.EntityID, actor model.Actor) ([]types.Status, error) {
	entity, err := uc.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	return uc.engine.Allowed(entity, actor), nil
}

func (uc *EntityUseCase) ListAudit(ctx context.Context, workspaceID string, id model.EntityID) ([]*model.AuditRecord, error) {
	records, err := uc.repo.Audit().ListByEntity(ctx, workspaceID, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit records", goerr.V(model.EntityIDKey, id))
	}
	return records, nil
}

// SubmitQuestionnaire validates raw answers, freezes them and stores them.
// A questionnaire ID can be submitted only once.
func (uc *EntityUseCase) SubmitQuestionnaire(ctx context.Context, workspaceID string, raw *scoring.RawQuestionnaire) error {
	if raw == nil || raw.ID == "" {
		return goerr.Wrap(model.ErrValidation, "questionnaire ID is required")
	}

	// submission time is ours to stamp
	stored := *raw
	stored.SubmittedAt = nil

	q, err := uc.aggregator.Ingest(&stored)
	if err != nil {
		return goerr.Wrap(err, "failed to ingest questionnaire", goerr.V(QuestionnaireIDKey, raw.ID))
	}
	if err := uc.aggregator.Validate(q); err != nil {
		return goerr.Wrap(err, "invalid questionnaire", goerr.V(QuestionnaireIDKey, raw.ID))
	}
	if err := q.Submit(time.Now().UTC()); err != nil {
		return goerr.Wrap(err, "failed to submit questionnaire", goerr.V(QuestionnaireIDKey, raw.ID))
	}
	stored.SubmittedAt = q.SubmittedAt

	if err := uc.repo.Questionnaire().Put(ctx, workspaceID, &stored); err != nil {
		return goerr.Wrap(err, "failed to store questionnaire", goerr.V(QuestionnaireIDKey, raw.ID))
	}
	return nil
}

// ScoreQuestionnaire computes the score of raw answers without storing them
func (uc *EntityUseCase) ScoreQuestionnaire(raw *scoring.RawQuestionnaire) (int, error) {
	if raw == nil {
		return 0, nil
	}
	q, err := uc.aggregator.Ingest(raw)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to ingest questionnaire", goerr.V(QuestionnaireIDKey, raw.ID))
	}
	score, err := uc.aggregator.Aggregate(q)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to aggregate questionnaire", goerr.V(QuestionnaireIDKey, raw.ID))
	}
	return score, nil
}

// Score recomputes the score of an entity from its stored questionnaire
func (uc *EntityUseCase) Score(ctx context.Context, workspaceID string, id model.EntityID) (*model.WorkflowEntity, error) {
	entity, err := uc.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if entity.QuestionnaireID == "" {
		return nil, goerr.Wrap(ErrNoQuestionnaire, "cannot score entity", goerr.V(model.EntityIDKey, id))
	}

	raw, err := uc.repo.Questionnaire().Get(ctx, workspaceID, entity.QuestionnaireID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get questionnaire",
			goerr.V(model.EntityIDKey, id),
			goerr.V(QuestionnaireIDKey, entity.QuestionnaireID))
	}

	score, err := uc.ScoreQuestionnaire(raw)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to score entity", goerr.V(model.EntityIDKey, id))
	}

	scored := entity.Clone()
	scored.Score = &score
	updated, err := uc.repo.Entity().UpdateScore(ctx, workspaceID, scored)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store score", goerr.V(model.EntityIDKey, id))
	}
	return updated, nil
}

// Classify maps impact and likelihood to a risk level with the matrix of
// the workspace
func (uc *EntityUseCase) Classify(ctx context.Context, workspaceID string, impact, likelihood int) (types.RiskLevel, error) {
	cfg, err := uc.matrixSource.GetMatrixConfig(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	level, err := matrix.Classify(impact, likelihood, cfg)
	if err != nil {
		return "", goerr.Wrap(err, "failed to classify risk",
			goerr.V(model.ImpactKey, impact),
			goerr.V(model.LikelihoodKey, likelihood))
	}
	return level, nil
}

// ClassifyLabels classifies impact and likelihood given as level labels of
// the workspace matrix
func (uc *EntityUseCase) ClassifyLabels(ctx context.Context, workspaceID, impactLabel, likelihoodLabel string) (types.RiskLevel, error) {
	cfg, err := uc.matrixSource.GetMatrixConfig(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	level, err := matrix.ClassifyLabels(impactLabel, likelihoodLabel, cfg)
	if err != nil {
		return "", goerr.Wrap(err, "failed to classify risk by labels")
	}
	return level, nil
}

// ClassifyRisk sets impact, likelihood and the resulting level of a risk
func (uc *EntityUseCase) ClassifyRisk(ctx context.Context, workspaceID string, id model.EntityID, impact, likelihood int) (*model.WorkflowEntity, error) {
	entity, err := uc.Get(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if entity.Kind != types.EntityKindRisk {
		return nil, goerr.Wrap(ErrNotRisk, "cannot classify entity",
			goerr.V(model.EntityIDKey, id),
			goerr.V(model.EntityKindKey, entity.Kind))
	}

	level, err := uc.Classify(ctx, workspaceID, impact, likelihood)
	if err != nil {
		return nil, err
	}

	classified := entity.Clone()
	classified.Impact = impact
	classified.Likelihood = likelihood
	classified.RiskLevel = level
	updated, err := uc.repo.Entity().UpdateScore(ctx, workspaceID, classified)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store classification", goerr.V(model.EntityIDKey, id))
	}
	return updated, nil
}

// ExpireOverdue moves every overdue vendor assessment that can still expire
// to expired, on behalf of the system. It returns the number of expired
// entities. An entity that fails is logged and skipped.
func (uc *EntityUseCase) ExpireOverdue(ctx context.Context, workspaceID string, now time.Time) (int, error) {
	entities, err := uc.repo.Entity().ListByKind(ctx, workspaceID, types.EntityKindVendorAssessment)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list vendor assessments", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	actor := model.SystemActor()
	expired := 0
	for _, entity := range entities {
		if !entity.IsOverdue(now) || !uc.engine.CanTransition(entity, types.VendorStatusExpired, actor) {
			continue
		}

		ok, err := uc.expire(ctx, workspaceID, entity.ID, now, actor)
		if err != nil {
			_ = errutil.Handle(ctx, err, "failed to expire vendor assessment")
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		logging.From(ctx).Info("expired overdue vendor assessments",
			"workspace_id", workspaceID,
			"count", expired)
	}
	return expired, nil
}

// expire re-reads the entity under its lock, since a move may have settled it
// after the listing
func (uc *EntityUseCase) expire(ctx context.Context, workspaceID string, id model.EntityID, now time.Time, actor model.Actor) (bool, error) {
	release, err := uc.lock.Acquire(ctx, workspaceID, id, false)
	if err != nil {
		return false, err
	}
	defer release()

	entity, err := uc.Get(ctx, workspaceID, id)
	if err != nil {
		return false, err
	}
	if !entity.IsOverdue(now) || !uc.engine.CanTransition(entity, types.VendorStatusExpired, actor) {
		return false, nil
	}

	if _, err := uc.tr.apply(ctx, workspaceID, entity, types.VendorStatusExpired, actor, "due date passed"); err != nil {
		return false, err
	}
	return true, nil
}
