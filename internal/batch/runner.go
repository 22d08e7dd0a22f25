// Package batch executes independent units of generation work with a bounded
// worker pool. One unit failing never aborts or blocks its siblings; every
// outcome is recorded per job.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pixelloom/studio/internal/domain"
)

// Status enumerates job lifecycle states.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// WorkFunc executes one unit of work. Errors are recorded on the job, not
// propagated.
type WorkFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

type job[In, Out any] struct {
	id         string
	input      In
	status     Status
	result     Out
	errMessage string
}

// JobView is an immutable observer snapshot of a single job.
type JobView[Out any] struct {
	ID         string `json:"id"`
	Status     Status `json:"status"`
	Result     Out    `json:"result,omitempty"`
	ErrMessage string `json:"error,omitempty"`
}

// Runner owns one batch of jobs. Job records are never shared across batches.
//
// Observers must treat the snapshot as an unordered map keyed by job id:
// submission order determines start order only, never completion order.
type Runner[In, Out any] struct {
	work WorkFunc[In, Out]

	mu    sync.Mutex
	jobs  map[string]*job[In, Out]
	queue []string
	epoch uint64
}

// NewRunner creates an empty runner around the given work function.
func NewRunner[In, Out any](work WorkFunc[In, Out]) *Runner[In, Out] {
	return &Runner[In, Out]{
		work: work,
		jobs: make(map[string]*job[In, Out]),
	}
}

// Submit registers inputs as pending jobs and returns their ids in submission
// order. Every job is visible as pending before Run starts picking them up,
// so observers can render a deterministic "all queued" state immediately.
func (r *Runner[In, Out]) Submit(inputs []In) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(inputs))
	for _, input := range inputs {
		id := uuid.NewString()
		r.jobs[id] = &job[In, Out]{id: id, input: input, status: StatusPending}
		r.queue = append(r.queue, id)
		ids = append(ids, id)
	}
	return ids
}

// Run drains the queued jobs with exactly `concurrency` workers. Each worker
// pops the next item and executes it to completion before popping again, so
// at most `concurrency` units are in flight and an early finisher immediately
// takes the next item. Run returns when all workers have exited their loop;
// batch completion is a join over the worker set, not the job list, since
// jobs may be retried independently afterwards.
func (r *Runner[In, Out]) Run(ctx context.Context, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}

	r.mu.Lock()
	pending := r.queue
	r.queue = nil
	epoch := r.epoch
	r.mu.Unlock()

	queue := make(chan string, len(pending))
	for _, id := range pending {
		queue <- id
	}
	close(queue)

	var group errgroup.Group
	for i := 0; i < concurrency; i++ {
		group.Go(func() error {
			for id := range queue {
				r.execute(ctx, id, epoch)
			}
			return nil
		})
	}
	// Workers never return errors; failures live on the jobs.
	_ = group.Wait()
}

// Retry moves a terminal job back through pending and re-executes its work
// function as a single ad hoc call, outside any bounded pool. It may overlap
// unrelated in-flight batch work. Each retry is a fresh attempt, not a
// resumption.
func (r *Runner[In, Out]) Retry(ctx context.Context, id string) (JobView[Out], error) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return JobView[Out]{}, fmt.Errorf("batch: job %s: %w", id, domain.ErrNotFound)
	}
	j.status = StatusPending
	j.errMessage = ""
	epoch := r.epoch
	r.mu.Unlock()

	r.execute(ctx, id, epoch)

	view, ok := r.Job(id)
	if !ok {
		return JobView[Out]{}, fmt.Errorf("batch: job %s: %w", id, domain.ErrNotFound)
	}
	return view, nil
}

// Reset discards all job state and bumps the epoch so still-in-flight work
// resolves as a safe no-op against the stale state.
func (r *Runner[In, Out]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.jobs = make(map[string]*job[In, Out])
	r.queue = nil
}

// Snapshot returns the current job states keyed by id.
func (r *Runner[In, Out]) Snapshot() map[string]JobView[Out] {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]JobView[Out], len(r.jobs))
	for id, j := range r.jobs {
		out[id] = JobView[Out]{ID: j.id, Status: j.status, Result: j.result, ErrMessage: j.errMessage}
	}
	return out
}

// Job returns a snapshot of a single job.
func (r *Runner[In, Out]) Job(id string) (JobView[Out], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return JobView[Out]{}, false
	}
	return JobView[Out]{ID: j.id, Status: j.status, Result: j.result, ErrMessage: j.errMessage}, true
}

func (r *Runner[In, Out]) execute(ctx context.Context, id string, epoch uint64) {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok || r.epoch != epoch {
		r.mu.Unlock()
		return
	}
	input := j.input
	r.mu.Unlock()

	result, err := r.work(ctx, input)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		// The batch was discarded while this unit was in flight.
		return
	}
	j, ok = r.jobs[id]
	if !ok {
		return
	}
	if err != nil {
		j.status = StatusError
		j.errMessage = err.Error()
		return
	}
	j.status = StatusDone
	j.result = result
	j.errMessage = ""
}
