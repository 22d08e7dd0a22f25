package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pixelloom/studio/internal/domain"
)

// Manager tracks live batches by id and runs each one asynchronously under
// the process-lifetime context handed in at construction, so batches outlive
// the HTTP request that submitted them.
type Manager[In, Out any] struct {
	ctx         context.Context
	work        WorkFunc[In, Out]
	concurrency int

	mu      sync.Mutex
	batches map[string]*Runner[In, Out]
}

// NewManager creates a manager whose batches default to the given worker-pool
// size.
func NewManager[In, Out any](ctx context.Context, work WorkFunc[In, Out], concurrency int) *Manager[In, Out] {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Manager[In, Out]{
		ctx:         ctx,
		work:        work,
		concurrency: concurrency,
		batches:     make(map[string]*Runner[In, Out]),
	}
}

// Start submits inputs as a new batch and begins draining it in the
// background. The returned snapshot shows every job pending.
func (m *Manager[In, Out]) Start(inputs []In, concurrency int) (string, map[string]JobView[Out]) {
	if concurrency < 1 {
		concurrency = m.concurrency
	}
	runner := NewRunner(m.work)
	runner.Submit(inputs)
	snapshot := runner.Snapshot()

	id := uuid.NewString()
	m.mu.Lock()
	m.batches[id] = runner
	m.mu.Unlock()

	go runner.Run(m.ctx, concurrency)
	return id, snapshot
}

// Get looks up a live batch.
func (m *Manager[In, Out]) Get(id string) (*Runner[In, Out], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	runner, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch: %s: %w", id, domain.ErrNotFound)
	}
	return runner, nil
}

// Discard resets a batch and forgets it. In-flight work resolves as a no-op.
func (m *Manager[In, Out]) Discard(id string) error {
	m.mu.Lock()
	runner, ok := m.batches[id]
	delete(m.batches, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("batch: %s: %w", id, domain.ErrNotFound)
	}
	runner.Reset()
	return nil
}
