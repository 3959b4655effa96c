package archive_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/memory"
	"github.com/secmon-lab/themis/pkg/service/archive"
)

type memoryObject struct {
	bytes.Buffer
	closed   bool
	writeErr error
	closeErr error
}

func (o *memoryObject) Write(p []byte) (int, error) {
	if o.writeErr != nil {
		return 0, o.writeErr
	}
	return o.Buffer.Write(p)
}

func (o *memoryObject) Close() error {
	o.closed = true
	return o.closeErr
}

type memorySink struct {
	objects  map[string]*memoryObject
	writeErr error
	closeErr error
}

func newMemorySink() *memorySink {
	return &memorySink{objects: make(map[string]*memoryObject)}
}

func (s *memorySink) NewWriter(ctx context.Context, object string) io.WriteCloser {
	o := &memoryObject{writeErr: s.writeErr, closeErr: s.closeErr}
	s.objects[object] = o
	return o
}

func appendRecords(t *testing.T, repo *memory.Memory, ws string, n int) {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entity := &model.WorkflowEntity{ID: model.NewEntityID(), Kind: types.EntityKindActionPlan}
	for i := 0; i < n; i++ {
		record := model.NewAuditRecord(entity, model.StatusTransition{
			From:      types.ActionPlanStatusPlanned,
			To:        types.ActionPlanStatusApproved,
			ActorID:   "U001",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		gt.NoError(t, repo.Audit().Append(context.Background(), ws, record)).Required()
	}
}

func TestExporter_Export(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one line per record", func(t *testing.T) {
		repo := memory.New()
		appendRecords(t, repo, "grc", 3)
		sink := newMemorySink()

		object, n, err := archive.New(repo, sink).Export(ctx, "grc", "audit/grc/manual.jsonl")
		gt.NoError(t, err).Required()
		gt.Value(t, object).Equal("audit/grc/manual.jsonl")
		gt.Number(t, n).Equal(3)

		obj := sink.objects[object]
		gt.Value(t, obj).NotNil()
		gt.Bool(t, obj.closed).True()

		var lines []model.AuditRecord
		scanner := bufio.NewScanner(bytes.NewReader(obj.Bytes()))
		for scanner.Scan() {
			var r model.AuditRecord
			gt.NoError(t, json.Unmarshal(scanner.Bytes(), &r)).Required()
			lines = append(lines, r)
		}
		gt.Array(t, lines).Length(3).Required()
		gt.Value(t, lines[0].To).Equal(types.ActionPlanStatusApproved)
		gt.Bool(t, lines[0].OccurredAt.Before(lines[2].OccurredAt)).True()
	})

	t.Run("default object name", func(t *testing.T) {
		repo := memory.New()
		sink := newMemorySink()
		exporter := archive.New(repo, sink)
		exporter.SetClock(func() time.Time { return time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC) })

		object, n, err := exporter.Export(ctx, "grc", "")
		gt.NoError(t, err).Required()
		gt.Value(t, object).Equal("audit/grc/20261001T123000Z.jsonl")
		gt.Number(t, n).Equal(0)
	})

	t.Run("commit failure is returned", func(t *testing.T) {
		repo := memory.New()
		appendRecords(t, repo, "grc", 1)
		sink := newMemorySink()
		sink.closeErr = errors.New("precondition failed")

		_, _, err := archive.New(repo, sink).Export(ctx, "grc", "x.jsonl")
		gt.Value(t, err).NotNil()
	})

	t.Run("write failure closes the writer", func(t *testing.T) {
		repo := memory.New()
		appendRecords(t, repo, "grc", 1)
		sink := newMemorySink()
		sink.writeErr = errors.New("connection reset")

		_, _, err := archive.New(repo, sink).Export(ctx, "grc", "x.jsonl")
		gt.Value(t, err).NotNil()
		gt.Bool(t, sink.objects["x.jsonl"].closed).True()
	})
}
