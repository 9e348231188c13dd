// Package scheduler runs named periodic tasks.
//
// A Task can be started and stopped explicitly by its owner, or handed to a
// suture supervisor which calls Serve directly.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Func is the work done on every tick
type Func func(ctx context.Context) error

// Task runs Func on a fixed interval
type Task struct {
	name      string
	interval  time.Duration
	fn        Func
	immediate bool
	trigger   chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Task
type Option func(*Task)

// WithImmediate runs the task once as soon as it starts instead of waiting for the first tick
func WithImmediate() Option {
	return func(t *Task) {
		t.immediate = true
	}
}

// New creates a new task
func New(name string, interval time.Duration, fn Func, opts ...Option) *Task {
	if interval <= 0 {
		interval = time.Minute
	}
	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		trigger:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Serve runs the task until ctx is cancelled. It implements suture.Service.
func (t *Task) Serve(ctx context.Context) error {
	if t.immediate {
		t.run(ctx)
	}

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.run(ctx)
		case <-t.trigger:
			t.run(ctx)
		}
	}
}

func (t *Task) run(ctx context.Context) {
	if err := t.fn(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Str("task", t.name).Msg("Scheduled task failed")
	}
}

// Start runs the task in the background. Calling Start on a running task is a no-op.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		_ = t.Serve(runCtx)
	}()
}

// Stop cancels the task and waits for an in-flight run to return
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.cancel, t.done = nil, nil
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the task was started and not stopped
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Trigger requests an extra run without waiting for the next tick.
// Requests made while one is already pending are merged.
func (t *Task) Trigger() {
	select {
	case t.trigger <- struct{}{}:
	default:
	}
}

// String implements fmt.Stringer for supervisor logs
func (t *Task) String() string {
	return t.name
}
