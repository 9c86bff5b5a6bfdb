package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Handle is a cancellation-aware reference to one detached task.
type Handle struct {
	Name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the task's context. The task still runs its completion
// callback with the resulting error.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done closes when the task and its completion callback have finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Supervisor runs detached background tasks with a bounded timeout and a
// completion callback. Nothing escapes a task: errors and panics are
// funneled into the callback, which performs the terminal persistence
// write.
type Supervisor struct {
	timeout time.Duration

	mu     sync.Mutex
	active int
}

// NewSupervisor creates a supervisor with a per-task timeout.
func NewSupervisor(timeout time.Duration) *Supervisor {
	return &Supervisor{timeout: timeout}
}

// ActiveCount returns the number of tasks currently running.
func (s *Supervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Spawn launches fn detached. The caller returns immediately; onDone is
// always invoked exactly once with fn's error (nil on success), including
// when fn panics or the timeout fires.
func (s *Supervisor) Spawn(name string, fn func(ctx context.Context) error, onDone func(err error)) *Handle {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	handle := &Handle{Name: name, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.active++
	s.mu.Unlock()

	go func() {
		defer close(handle.done)
		defer cancel()
		defer func() {
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
		}()

		start := time.Now()
		err := runRecovered(ctx, name, fn)
		log.Printf("[Supervisor] task %s finished in %.2fs (err=%v)", name, time.Since(start).Seconds(), err)
		if onDone != nil {
			onDone(err)
		}
	}()

	return handle
}

func runRecovered(ctx context.Context, name string, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Supervisor] task %s panicked: %v", name, r)
			err = fmt.Errorf("task %s panicked: %v", name, r)
		}
	}()
	return fn(ctx)
}
