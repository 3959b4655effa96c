package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/utils/errutil"
	"github.com/secmon-lab/themis/pkg/utils/logging"
)

// Expirer moves overdue entities of a workspace to their expired status
type Expirer interface {
	ExpireOverdue(ctx context.Context, workspaceID string, now time.Time) (int, error)
}

// ExpiryWorker periodically expires overdue vendor assessments of every
// configured workspace on behalf of the system
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - Expiry is idempotent; a second instance would only see conflicts
type ExpiryWorker struct {
	expirer    Expirer
	workspaces []string
	interval   time.Duration
	now        func() time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
}

// Option configures an ExpiryWorker
type Option func(*ExpiryWorker)

// WithClock replaces the clock used to decide what is overdue
func WithClock(now func() time.Time) Option {
	return func(w *ExpiryWorker) {
		w.now = now
	}
}

// NewExpiryWorker creates a new worker for expiring overdue entities
func NewExpiryWorker(expirer Expirer, workspaces []string, interval time.Duration, opts ...Option) *ExpiryWorker {
	w := &ExpiryWorker{
		expirer:    expirer,
		workspaces: workspaces,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins the background expiry loop. It does not block.
func (w *ExpiryWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return goerr.New("expiry interval must be positive", goerr.V("interval", w.interval))
	}

	logging.From(ctx).Info("Expiry worker starting",
		"interval", w.interval.String(),
		"workspaces", len(w.workspaces))

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ExpiryWorker) Stop() {
	logging.Default().Info("Expiry worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Expiry worker stopped")
}

func (w *ExpiryWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(ctx)

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Expiry worker context cancelled")
			return
		}
	}
}

// RunOnce performs a single expiry cycle over all workspaces and returns
// the number of expired entities
func (w *ExpiryWorker) RunOnce(ctx context.Context) int {
	now := w.now()
	total := 0

	for _, wsID := range w.workspaces {
		n, err := w.expirer.ExpireOverdue(ctx, wsID, now)
		if err != nil {
			// keep going with the other workspaces, retry next interval
			_ = errutil.Handle(ctx, goerr.Wrap(err, "expiry cycle failed", goerr.V("workspace_id", wsID)),
				"failed to expire overdue entities")
			continue
		}
		total += n
	}

	return total
}
