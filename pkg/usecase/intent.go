package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/utils/async"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// IntentExecutor carries out the side effects the lifecycle engine asks
// for. Intents of one transition are independent and run concurrently.
type IntentExecutor struct {
	repo     interfaces.Repository
	notifier interfaces.Notifier
	async    bool
}

func NewIntentExecutor(repo interfaces.Repository, notifier interfaces.Notifier, asyncNotify bool) *IntentExecutor {
	return &IntentExecutor{
		repo:     repo,
		notifier: notifier,
		async:    asyncNotify,
	}
}

// Execute runs intents for entity. Audit and counter failures are returned;
// notification failures are logged and swallowed.
func (x *IntentExecutor) Execute(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, intents []model.SideEffectIntent) error {
	var eg errgroup.Group

	for _, intent := range intents {
		switch intent.Type {
		case types.IntentTypeAudit:
			eg.Go(func() error {
				return x.audit(ctx, workspaceID, entity, intent)
			})

		case types.IntentTypeNotify:
			if x.async {
				async.Dispatch(ctx, "failed to send notification", func(ctx context.Context) error {
					return x.notify(ctx, workspaceID, intent)
				})
				continue
			}
			eg.Go(func() error {
				_ = errutil.Handle(ctx, x.notify(ctx, workspaceID, intent), "failed to send notification")
				return nil
			})

		case types.IntentTypeIncrementUsage:
			eg.Go(func() error {
				if _, err := x.repo.Counter().Increment(ctx, workspaceID, intent.Counter, intent.CounterKey); err != nil {
					return goerr.Wrap(err, "failed to increment usage counter",
						goerr.V(model.EntityIDKey, intent.EntityID),
						goerr.V("counter", intent.Counter))
				}
				return nil
			})

		default:
			logging.From(ctx).Warn("unknown side effect intent", "type", intent.Type, "entity_id", intent.EntityID)
		}
	}

	return eg.Wait()
}

func (x *IntentExecutor) audit(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, intent model.SideEffectIntent) error {
	if intent.Transition == nil {
		return goerr.New("audit intent without transition", goerr.V(model.EntityIDKey, intent.EntityID))
	}

	record := model.NewAuditRecord(entity, *intent.Transition)
	if err := x.repo.Audit().Append(ctx, workspaceID, record); err != nil {
		return goerr.Wrap(err, "failed to append audit record",
			goerr.V(model.EntityIDKey, entity.ID),
			goerr.V(model.ToStatusKey, intent.Transition.To))
	}
	return nil
}

func (x *IntentExecutor) notify(ctx context.Context, workspaceID string, intent model.SideEffectIntent) error {
	if x.notifier == nil {
		logging.From(ctx).Debug("no notifier configured, skip notification",
			"template_id", intent.TemplateID,
			"entity_id", intent.EntityID)
		return nil
	}

	payload := make(map[string]string, len(intent.Payload)+1)
	for k, v := range intent.Payload {
		payload[k] = v
	}
	payload["workspace_id"] = workspaceID

	if err := x.notifier.Notify(ctx, intent.Recipient, intent.TemplateID, payload); err != nil {
		return goerr.Wrap(model.ErrNotificationFailure, "notification failed",
			goerr.V(model.EntityIDKey, intent.EntityID),
			goerr.V(TemplateIDKey, intent.TemplateID),
			goerr.V(RecipientKey, intent.Recipient),
			goerr.V("cause", err.Error()))
	}
	return nil
}
