package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meridianfin/brs/internal/jobs"
)

// Queue is an in-memory implementation of job publisher and consumer.
// Every account gets its own channel with a single worker draining it, so
// runs for the same account serialize while different accounts proceed in
// parallel. This implementation is suitable for single-instance
// deployments; for multi-instance deployments, migrate to Cloud Tasks or
// Pub/Sub with per-account ordering keys.
type Queue struct {
	bufferSize int
	store      jobs.JobStore

	mu       sync.Mutex
	lanes    map[string]chan *jobs.ReconRunJob
	handler  jobs.JobHandler
	ctx      context.Context
	started  bool
	closed   bool
	closeCh  chan struct{}
	wg       sync.WaitGroup
}

// NewQueue creates a new in-memory job queue. bufferSize determines how
// many jobs can wait per account before PublishReconRun blocks.
func NewQueue(bufferSize int, store jobs.JobStore) *Queue {
	return &Queue{
		bufferSize: bufferSize,
		store:      store,
		lanes:      make(map[string]chan *jobs.ReconRunJob),
		closeCh:    make(chan struct{}),
	}
}

// Start implements the Consumer interface. Workers spawn lazily, one per
// account, on the first job published for that account.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}
	if q.started {
		return fmt.Errorf("queue already started")
	}
	q.started = true
	q.handler = handler
	q.ctx = ctx
	return nil
}

// PublishReconRun implements the Publisher interface. It enqueues a run on
// the account's lane for asynchronous processing.
func (q *Queue) PublishReconRun(ctx context.Context, job *jobs.ReconRunJob) error {
	if job.Account == "" {
		return fmt.Errorf("job account is required")
	}

	if job.JobID == "" {
		job.JobID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue is closed")
	}
	if !q.started {
		q.mu.Unlock()
		return fmt.Errorf("queue not started")
	}
	lane, ok := q.lanes[job.Account]
	if !ok {
		lane = make(chan *jobs.ReconRunJob, q.bufferSize)
		q.lanes[job.Account] = lane
		q.wg.Add(1)
		go q.worker(q.ctx, lane)
	}
	q.mu.Unlock()

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("failed to save job: %w", err)
		}
	}

	select {
	case lane <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeCh:
		return fmt.Errorf("queue is closed")
	}
}

// worker drains one account's lane, one job at a time.
func (q *Queue) worker(ctx context.Context, lane chan *jobs.ReconRunJob) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeCh:
			return
		case job := <-lane:
			if job == nil {
				return
			}
			q.processJob(ctx, job)
		}
	}
}

// processJob executes a single job. There is no queue-level retry: a
// failed run is re-triggered deliberately through the API once the input
// problem is fixed, never replayed blindly.
func (q *Queue) processJob(ctx context.Context, job *jobs.ReconRunJob) {
	job.Status = jobs.JobStatusRunning
	now := time.Now()
	job.StartedAt = &now

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}

	err := q.handler(ctx, job)

	completedAt := time.Now()
	job.CompletedAt = &completedAt
	if err != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = err.Error()
	} else {
		job.Status = jobs.JobStatusCompleted
		job.Error = ""
	}

	if q.store != nil {
		_ = q.store.SaveJob(ctx, job)
	}
}

// Stop implements the Consumer interface.
// It stops the queue and waits for all in-flight jobs to complete.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeCh)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements the Publisher interface.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

// Ensure Queue implements both Publisher and Consumer interfaces.
var _ jobs.Publisher = (*Queue)(nil)
var _ jobs.Consumer = (*Queue)(nil)
