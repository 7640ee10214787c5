package channel

import (
	"context"
	"sync"
	"testing"
	"time"
)

// barrier waits until every previously submitted job has executed.
func barrier(t *testing.T, rt *Runtime) {
	t.Helper()
	done := make(chan struct{})
	if !rt.Submit(func(context.Context) { close(done) }) {
		t.Fatalf("runtime rejected barrier job")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("job queue did not drain")
	}
}

func TestRuntimeExecutesJobsInOrder(t *testing.T) {
	rt := NewRuntime("test", nil)
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rt.Stop()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 50; i++ {
		i := i
		rt.Submit(func(context.Context) {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	barrier(t, rt)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 50 {
		t.Fatalf("executed %d jobs, want 50", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("job %d executed out of order (got %d)", i, v)
		}
	}
}

func TestRuntimeDoubleStartFails(t *testing.T) {
	rt := NewRuntime("test", nil)
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rt.Stop()

	if err := rt.Start(context.Background()); err == nil {
		t.Fatal("second start should fail")
	}
}

func TestRuntimeStopWaitsForTasks(t *testing.T) {
	rt := NewRuntime("test", nil)
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	started := make(chan struct{})
	rt.SpawnTask("block", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started
	if rt.TaskCount() != 1 {
		t.Fatalf("task count = %d, want 1", rt.TaskCount())
	}

	rt.Stop()
	if rt.TaskCount() != 0 {
		t.Fatalf("task count after stop = %d, want 0", rt.TaskCount())
	}

	// Double stop is a no-op and Submit reports the drop.
	rt.Stop()
	if rt.Submit(func(context.Context) {}) {
		t.Fatal("submit after stop should report false")
	}
}

func TestRuntimeScheduleFiresRepeatedly(t *testing.T) {
	rt := NewRuntime("test", nil)
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer rt.Stop()

	fired := make(chan struct{}, 16)
	rt.Schedule("tick", 10*time.Millisecond, func(context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	deadline := time.After(5 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case <-fired:
		case <-deadline:
			t.Fatalf("scheduled job fired %d times, want at least 3", i)
		}
	}
}

func TestStopDrainsQueuedJobs(t *testing.T) {
	rt := NewRuntime("test", nil)
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// The first job holds the loop until Stop cancels; the jobs queued
	// behind it were accepted and must still run.
	rt.Submit(func(ctx context.Context) { <-ctx.Done() })
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		if !rt.Submit(func(context.Context) {
			mu.Lock()
			ran++
			mu.Unlock()
		}) {
			t.Fatalf("job %d rejected before stop", i)
		}
	}

	rt.Stop()

	mu.Lock()
	defer mu.Unlock()
	if ran != 5 {
		t.Fatalf("%d queued jobs ran during stop, want 5", ran)
	}
}

type failingCapability struct{}

func (failingCapability) Name() string { return "failing" }
func (failingCapability) Attach(context.Context, *Runtime) error {
	return context.DeadlineExceeded
}
func (failingCapability) Shutdown(*Runtime) {}

func TestRuntimeStartFailsWhenAttachFails(t *testing.T) {
	rt := NewRuntime("test", nil, failingCapability{})
	if err := rt.Start(context.Background()); err == nil {
		t.Fatal("start should surface attach failure")
	}
	if rt.Submit(func(context.Context) {}) {
		t.Fatal("runtime should be stopped after attach failure")
	}
}
