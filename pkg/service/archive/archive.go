package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/secmon-lab/themis/pkg/utils/safe"
)

// Sink opens a writer for one archive object. The object is committed when
// the writer is closed without error.
type Sink interface {
	NewWriter(ctx context.Context, object string) io.WriteCloser
}

// GCSSink writes archive objects to a Cloud Storage bucket
type GCSSink struct {
	bucket *storage.BucketHandle
}

// NewGCSSink creates a sink for bucket
func NewGCSSink(client *storage.Client, bucket string) *GCSSink {
	return &GCSSink{bucket: client.Bucket(bucket)}
}

func (s *GCSSink) NewWriter(ctx context.Context, object string) io.WriteCloser {
	w := s.bucket.Object(object).NewWriter(ctx)
	w.ContentType = "application/x-ndjson"
	return w
}

// Exporter writes the audit trail of a workspace as JSON Lines
type Exporter struct {
	repo interfaces.Repository
	sink Sink
	now  func() time.Time
}

// New creates an Exporter
func New(repo interfaces.Repository, sink Sink) *Exporter {
	return &Exporter{
		repo: repo,
		sink: sink,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ObjectName returns the default object name of an export taken at ts
func ObjectName(workspaceID string, ts time.Time) string {
	return fmt.Sprintf("audit/%s/%s.jsonl", workspaceID, ts.UTC().Format("20060102T150405Z"))
}

// Export writes every audit record of the workspace to object, one JSON
// document per line in OccurredAt order. An empty object name selects
// ObjectName. It returns the object name and the number of records.
func (e *Exporter) Export(ctx context.Context, workspaceID, object string) (string, int, error) {
	if object == "" {
		object = ObjectName(workspaceID, e.now())
	}

	records, err := e.repo.Audit().List(ctx, workspaceID)
	if err != nil {
		return "", 0, goerr.Wrap(err, "failed to list audit records", goerr.V(model.WorkspaceIDKey, workspaceID))
	}

	// cancelling the writer context aborts an upload that has not been committed
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := e.sink.NewWriter(wctx, object)
	enc := json.NewEncoder(w)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			cancel()
			safe.Close(ctx, w, "object", object)
			return "", 0, goerr.Wrap(err, "failed to write audit record",
				goerr.V("object", object),
				goerr.V("audit_record_id", record.ID))
		}
	}

	if err := w.Close(); err != nil {
		return "", 0, goerr.Wrap(err, "failed to commit audit archive", goerr.V("object", object))
	}

	logging.From(ctx).Info("exported audit records",
		"workspace_id", workspaceID,
		"object", object,
		"count", len(records))

	return object, len(records), nil
}
