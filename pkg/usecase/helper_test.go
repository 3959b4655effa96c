package usecase_test

import (
	"context"
	"sync"

	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/secmon-lab/themis/pkg/repository/memory"
)

const testWorkspaceID = "test-ws"

type sentNotification struct {
	Recipient  string
	TemplateID string
	Payload    map[string]string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
	ch   chan sentNotification
}

func (m *mockNotifier) Notify(ctx context.Context, recipient, templateID string, payload map[string]string) error {
	n := sentNotification{Recipient: recipient, TemplateID: templateID, Payload: payload}
	m.mu.Lock()
	m.sent = append(m.sent, n)
	m.mu.Unlock()
	if m.ch != nil {
		m.ch <- n
	}
	return m.err
}

func (m *mockNotifier) Sent() []sentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentNotification, len(m.sent))
	copy(out, m.sent)
	return out
}

// controlledRepository wraps the memory repository and lets tests fail or
// hold status updates
type controlledRepository struct {
	*memory.Memory
	entity *controlledEntityRepository
}

func newControlledRepository() *controlledRepository {
	mem := memory.New()
	return &controlledRepository{
		Memory: mem,
		entity: &controlledEntityRepository{EntityRepository: mem.Entity()},
	}
}

func (r *controlledRepository) Entity() interfaces.EntityRepository {
	return r.entity
}

type controlledEntityRepository struct {
	interfaces.EntityRepository

	// entered receives a value each time UpdateStatus starts
	entered chan struct{}
	// gate holds UpdateStatus until it is closed
	gate chan struct{}
	// failUpdate is returned by UpdateStatus when set
	failUpdate error
}

func (r *controlledEntityRepository) UpdateStatus(ctx context.Context, workspaceID string, entity *model.WorkflowEntity, expectedPrevious types.Status) (*model.WorkflowEntity, error) {
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.gate != nil {
		<-r.gate
	}
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	return r.EntityRepository.UpdateStatus(ctx, workspaceID, entity, expectedPrevious)
}
