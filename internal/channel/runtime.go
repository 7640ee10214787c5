package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"livescribe/internal/logging"
)

const (
	defaultJobBuffer   = 128
	defaultStopTimeout = 15 * time.Second
)

// Capability is an optional behavior composed into a Runtime at
// construction. Attach runs during Start and may schedule jobs or spawn
// tracked tasks; Shutdown runs during Stop after every task has unwound and
// the job loop has drained.
type Capability interface {
	Name() string
	Attach(ctx context.Context, rt *Runtime) error
	Shutdown(rt *Runtime)
}

// Runtime is the isolation boundary for one monitored channel: a dedicated
// goroutine executing submitted jobs one at a time, plus a registry of the
// background tasks feeding it.
type Runtime struct {
	name         string
	logger       *slog.Logger
	capabilities []Capability
	stopTimeout  time.Duration

	jobs chan func(context.Context)

	mu       sync.Mutex
	running  bool
	stopped  bool
	runCtx   context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}

	taskMu    sync.Mutex
	taskNames map[int64]string
	nextTask  int64
	tasks     sync.WaitGroup
}

// NewRuntime builds an unstarted runtime for one channel.
func NewRuntime(name string, logger *slog.Logger, capabilities ...Capability) *Runtime {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runtime{
		name:         name,
		logger:       logger.With(logging.String(logging.FieldChannel, name)),
		capabilities: capabilities,
		stopTimeout:  defaultStopTimeout,
		jobs:         make(chan func(context.Context), defaultJobBuffer),
		taskNames:    make(map[int64]string),
	}
}

// Name returns the channel name.
func (r *Runtime) Name() string { return r.name }

// Logger returns the channel-scoped logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Start launches the job loop and attaches every capability.
func (r *Runtime) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("channel runtime already running")
	}
	if r.stopped {
		r.mu.Unlock()
		return errors.New("channel runtime already stopped")
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.runCtx = runCtx
	r.cancel = cancel
	r.loopDone = make(chan struct{})
	r.running = true
	r.mu.Unlock()

	go r.loop(runCtx)

	for _, capability := range r.capabilities {
		if err := capability.Attach(runCtx, r); err != nil {
			r.Stop()
			return fmt.Errorf("attach %s capability: %w", capability.Name(), err)
		}
	}

	r.logger.Info("channel runtime started")
	return nil
}

func (r *Runtime) loop(ctx context.Context) {
	defer close(r.loopDone)
	for {
		select {
		case <-ctx.Done():
			// Run jobs that were accepted before cancellation, such as
			// final sentences still in flight. Submit rejects new work
			// once the context is done, so this terminates.
			for {
				select {
				case job := <-r.jobs:
					job(ctx)
				default:
					return
				}
			}
		case job := <-r.jobs:
			job(ctx)
		}
	}
}

// Submit enqueues a job for serialized execution on the runtime goroutine.
// This is the only safe way to mutate session state from another goroutine.
// Reports false when the runtime is shutting down and the job was dropped.
func (r *Runtime) Submit(job func(context.Context)) bool {
	r.mu.Lock()
	ctx := r.runCtx
	stopped := r.stopped
	r.mu.Unlock()
	if ctx == nil || stopped || ctx.Err() != nil {
		return false
	}
	select {
	case r.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Schedule runs job on the runtime goroutine every interval until the
// runtime stops. The ticker lives in a tracked background task.
func (r *Runtime) Schedule(name string, interval time.Duration, job func(context.Context)) {
	r.SpawnTask(name, func(ctx context.Context) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Submit(job)
			}
		}
	})
}

// SpawnTask registers fn in the task registry and runs it on its own
// goroutine bound to the runtime context. The registration is removed
// exactly once when fn returns.
func (r *Runtime) SpawnTask(name string, fn func(context.Context)) {
	r.mu.Lock()
	ctx := r.runCtx
	running := r.running
	r.mu.Unlock()
	if !running || ctx == nil || ctx.Err() != nil {
		return
	}

	r.taskMu.Lock()
	id := r.nextTask
	r.nextTask++
	r.taskNames[id] = name
	r.taskMu.Unlock()

	r.tasks.Add(1)
	go func() {
		defer func() {
			r.taskMu.Lock()
			delete(r.taskNames, id)
			r.taskMu.Unlock()
			r.tasks.Done()
		}()
		fn(ctx)
	}()
}

// TaskCount returns the number of live background tasks.
func (r *Runtime) TaskCount() int {
	r.taskMu.Lock()
	defer r.taskMu.Unlock()
	return len(r.taskNames)
}

// Stop cancels every background task, waits (bounded) for them to unwind,
// drains the job loop, and shuts down capabilities. Safe to call from any
// goroutine; double stop is a no-op.
func (r *Runtime) Stop() {
	r.mu.Lock()
	if !r.running || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.running = false
	cancel := r.cancel
	loopDone := r.loopDone
	r.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		r.tasks.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(r.stopTimeout):
		r.logger.Warn("background tasks did not unwind before timeout",
			logging.Int("remaining", r.TaskCount()))
	}

	<-loopDone

	for _, capability := range r.capabilities {
		capability.Shutdown(r)
	}
	r.logger.Info("channel runtime stopped")
}
