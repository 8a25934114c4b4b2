package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type testJob struct {
	id      int
	delay   time.Duration
	fail    bool
	counter *int64
}

type testResult struct {
	id  int
	err error
}

func (r *testResult) GetError() error {
	return r.err
}

func (j *testJob) Execute(ctx context.Context) Result {
	if j.delay > 0 {
		select {
		case <-time.After(j.delay):
		case <-ctx.Done():
			return &testResult{id: j.id, err: ctx.Err()}
		}
	}

	if j.counter != nil {
		atomic.AddInt64(j.counter, 1)
	}

	if j.fail {
		return &testResult{id: j.id, err: errors.New("job failed")}
	}
	return &testResult{id: j.id}
}

func TestPoolExecutesAllJobs(t *testing.T) {
	pool := NewPool(3)
	pool.Start()

	var counter int64
	for i := 0; i < 5; i++ {
		pool.Submit(&testJob{id: i, counter: &counter})
	}

	results := pool.Wait()

	if len(results) != 5 {
		t.Errorf("expected 5 results, got %d", len(results))
	}
	if atomic.LoadInt64(&counter) != 5 {
		t.Errorf("expected 5 executions, got %d", counter)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&testJob{id: 0})
	pool.Submit(&testJob{id: 1, fail: true})

	results := pool.Wait()

	failures := 0
	for _, r := range results {
		if r.GetError() != nil {
			failures++
		}
	}

	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}
}

func TestPoolDefaultsToOneWorker(t *testing.T) {
	pool := NewPool(0)
	if pool.workers != 1 {
		t.Errorf("expected 1 worker, got %d", pool.workers)
	}
	pool.Start()
	pool.Submit(&testJob{id: 0})

	results := pool.Wait()
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestPoolShutdownStopsWorkers(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	pool.Submit(&testJob{id: 0, delay: 50 * time.Millisecond})
	pool.Shutdown()

	// Submitting after shutdown must not block or panic
	done := make(chan struct{})
	go func() {
		pool.Submit(&testJob{id: 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked after Shutdown")
	}
}
