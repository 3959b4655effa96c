package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
)

type counterDoc struct {
	Name  string `firestore:"name"`
	Key   string `firestore:"key"`
	Value int64  `firestore:"value"`
}

type counterRepository struct {
	client *firestore.Client
	root   string
}

func newCounterRepository(client *firestore.Client) *counterRepository {
	return &counterRepository{
		client: client,
		root:   defaultRoot,
	}
}

func (r *counterRepository) doc(workspaceID, name, key string) *firestore.DocumentRef {
	return workspaceCollection(r.client, r.root, workspaceID, "counters").Doc(name + "__" + key)
}

func (r *counterRepository) Increment(ctx context.Context, workspaceID string, name, key string) (int64, error) {
	docRef := r.doc(workspaceID, name, key)

	var value int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current counterDoc
		docSnap, err := tx.Get(docRef)
		switch {
		case err == nil:
			if err := docSnap.DataTo(&current); err != nil {
				return goerr.Wrap(err, "failed to decode counter")
			}
		case isNotFound(err):
		default:
			return goerr.Wrap(err, "failed to get counter")
		}

		value = current.Value + 1
		return tx.Set(docRef, &counterDoc{Name: name, Key: key, Value: value})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to increment counter",
			goerr.V("counter", name),
			goerr.V("key", key))
	}

	return value, nil
}

func (r *counterRepository) Get(ctx context.Context, workspaceID string, name, key string) (int64, error) {
	docSnap, err := r.doc(workspaceID, name, key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, goerr.Wrap(err, "failed to get counter",
			goerr.V("counter", name),
			goerr.V("key", key))
	}

	var d counterDoc
	if err := docSnap.DataTo(&d); err != nil {
		return 0, goerr.Wrap(err, "failed to decode counter")
	}
	return d.Value, nil
}
