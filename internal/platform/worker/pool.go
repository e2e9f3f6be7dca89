// Package worker runs jobs on a fixed number of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is a unit of work.
type Job[T any] struct {
	// ID identifies the job in results and logs.
	ID      string
	Execute func(ctx context.Context) (T, error)
}

// Result is the outcome of one job. Index is the job's position in the
// slice passed to Run, or its submission sequence number for Submit.
type Result[T any] struct {
	JobID string
	Index int
	Value T
	Err   error
}

type task[T any] struct {
	index int
	job   Job[T]
}

// Pool is a fixed-size worker pool. Workers pull jobs from a bounded queue
// and push every result to Results; a worker blocks rather than drop a
// result, so callers must drain Results.
type Pool[T any] struct {
	workers int
	queue   chan task[T]
	results chan Result[T]
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	seq    int
	closed bool
}

// NewPool starts workers goroutines. Non-positive workers means one;
// negative queueSize means an unbuffered queue.
func NewPool[T any](ctx context.Context, workers, queueSize int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	poolCtx, cancel := context.WithCancel(ctx)
	p := &Pool[T]{
		workers: workers,
		queue:   make(chan task[T], queueSize),
		results: make(chan Result[T], queueSize),
		ctx:     poolCtx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			value, err := t.job.Execute(p.ctx)
			select {
			case p.results <- Result[T]{JobID: t.job.ID, Index: t.index, Value: value, Err: err}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job, blocking while the queue is full. It fails once the
// pool is closed or its context is done.
func (p *Pool[T]) Submit(job Job[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	index := p.seq
	p.seq++

	return p.enqueue(task[T]{index: index, job: job})
}

func (p *Pool[T]) enqueue(t task[T]) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	case p.queue <- t:
		return nil
	}
}

// Results returns the result channel. It is closed by Close.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// Close stops accepting jobs, lets queued jobs finish and closes Results.
// Results must be drained concurrently if jobs are still in flight.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.queue)
	p.wg.Wait()
	p.cancel()
	close(p.results)
}

// Workers returns the number of workers.
func (p *Pool[T]) Workers() int {
	return p.workers
}

// Run executes jobs on a temporary pool and returns results in job order.
// Jobs that never ran because ctx ended carry the context error.
func Run[T any](ctx context.Context, workers int, jobs []Job[T]) []Result[T] {
	results := make([]Result[T], len(jobs))
	if len(jobs) == 0 {
		return results
	}

	p := NewPool[T](ctx, workers, len(jobs))
	ran := make([]bool, len(jobs))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range p.results {
			results[r.Index] = r
			ran[r.Index] = true
		}
	}()

	for i, job := range jobs {
		if err := p.enqueue(task[T]{index: i, job: job}); err != nil {
			break
		}
	}
	p.Close()
	<-done

	for i, job := range jobs {
		if !ran[i] {
			err := ctx.Err()
			if err == nil {
				err = ErrPoolClosed
			}
			results[i] = Result[T]{JobID: job.ID, Index: i, Err: err}
		}
	}
	return results
}
