package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = model.ErrNotFound

type Firestore struct {
	client        *firestore.Client
	entity        *entityRepository
	audit         *auditRepository
	counter       *counterRepository
	questionnaire *questionnaireRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithRootCollection changes the top level collection, "workspaces" by
// default. Tests use it to isolate their data.
func WithRootCollection(name string) Option {
	return func(f *Firestore) {
		f.entity.root = name
		f.audit.root = name
		f.counter.root = name
		f.questionnaire.root = name
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:        client,
		entity:        newEntityRepository(client),
		audit:         newAuditRepository(client),
		counter:       newCounterRepository(client),
		questionnaire: newQuestionnaireRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Entity() interfaces.EntityRepository {
	return f.entity
}

func (f *Firestore) Audit() interfaces.AuditRepository {
	return f.audit
}

func (f *Firestore) Counter() interfaces.CounterRepository {
	return f.counter
}

func (f *Firestore) Questionnaire() interfaces.QuestionnaireRepository {
	return f.questionnaire
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

const defaultRoot = "workspaces"

// workspaceCollection returns {root}/{workspaceID}/{name}
func workspaceCollection(client *firestore.Client, root, workspaceID, name string) *firestore.CollectionRef {
	return client.Collection(root).Doc(workspaceID).Collection(name)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// errStatusConflict and errHistoryConflict abort a transaction without
// retrying it
var (
	errStatusConflict  = errors.New("status conflict")
	errHistoryConflict = errors.New("history conflict")
)
