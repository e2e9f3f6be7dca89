package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool[int](context.Background(), 0, -5)
	defer pool.Close()

	if pool.Workers() != 1 {
		t.Errorf("got %d workers, want 1", pool.Workers())
	}
}

func TestPool_SubmitAndResults(t *testing.T) {
	pool := NewPool[int](context.Background(), 2, 10)

	wantErr := errors.New("boom")
	jobs := []Job[int]{
		{ID: "ok", Execute: func(context.Context) (int, error) { return 42, nil }},
		{ID: "fail", Execute: func(context.Context) (int, error) { return 0, wantErr }},
	}
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	got := map[string]Result[int]{}
	for i := 0; i < len(jobs); i++ {
		select {
		case r := <-pool.Results():
			got[r.JobID] = r
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for results")
		}
	}
	pool.Close()

	if got["ok"].Value != 42 || got["ok"].Err != nil {
		t.Errorf("ok job: got %+v", got["ok"])
	}
	if !errors.Is(got["fail"].Err, wantErr) {
		t.Errorf("fail job: got %v, want %v", got["fail"].Err, wantErr)
	}
	if got["ok"].Index != 0 || got["fail"].Index != 1 {
		t.Errorf("got indexes %d and %d, want 0 and 1", got["ok"].Index, got["fail"].Index)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	pool := NewPool[int](context.Background(), 1, 1)
	pool.Close()
	pool.Close()

	err := pool.Submit(Job[int]{Execute: func(context.Context) (int, error) { return 1, nil }})
	if !errors.Is(err, ErrPoolClosed) {
		t.Errorf("got %v, want ErrPoolClosed", err)
	}
}

func TestPool_SubmitContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool[int](ctx, 1, 0)
	cancel()

	// With the context gone no worker will take the job from the
	// unbuffered queue.
	time.Sleep(10 * time.Millisecond)
	err := pool.Submit(Job[int]{Execute: func(context.Context) (int, error) { return 1, nil }})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	pool.Close()
}

func TestRun_PreservesOrder(t *testing.T) {
	jobs := make([]Job[int], 20)
	for i := range jobs {
		i := i
		jobs[i] = Job[int]{Execute: func(context.Context) (int, error) {
			time.Sleep(time.Duration(20-i) * time.Millisecond / 10)
			return i * i, nil
		}}
	}

	results := Run(context.Background(), 4, jobs)
	if len(results) != len(jobs) {
		t.Fatalf("got %d results, want %d", len(results), len(jobs))
	}
	for i, r := range results {
		if r.Err != nil || r.Value != i*i || r.Index != i {
			t.Errorf("result %d: got %+v, want value %d", i, r, i*i)
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var running, peak int32
	jobs := make([]Job[struct{}], 16)
	for i := range jobs {
		jobs[i] = Job[struct{}]{Execute: func(context.Context) (struct{}, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return struct{}{}, nil
		}}
	}

	Run(context.Background(), 3, jobs)
	if peak > 3 {
		t.Errorf("got peak concurrency %d, want at most 3", peak)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var mu sync.Mutex
	ran := 0
	jobs := []Job[int]{
		{ID: "a", Execute: func(context.Context) (int, error) { mu.Lock(); ran++; mu.Unlock(); return 1, nil }},
	}

	results := Run(ctx, 1, jobs)
	if results[0].JobID != "a" {
		t.Errorf("got job id %q, want a", results[0].JobID)
	}
	mu.Lock()
	defer mu.Unlock()
	if ran == 0 && !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("job did not run: got %v, want context.Canceled", results[0].Err)
	}
}

func TestRun_Empty(t *testing.T) {
	if got := Run[int](context.Background(), 2, nil); len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}
