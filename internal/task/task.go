// internal/task/task.go
package task

import (
	"context"
	"sync"
	"time"
)

// Task is a unit of simulated remote work: it waits for a delay, then runs
// its body once. Cancelling the parent context before the delay elapses
// aborts the task without running the body.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	result T
	err    error
}

// After starts a task that runs fn once delay has elapsed.
func After[T any](ctx context.Context, delay time.Duration, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{}), cancel: cancel}

	go func() {
		defer close(t.done)
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			t.finish(*new(T), ctx.Err())
			return
		}

		res, err := fn(ctx)
		t.finish(res, err)
	}()

	return t
}

// Resolved returns a task that has already finished with res and err.
func Resolved[T any](res T, err error) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), cancel: func() {}, result: res, err: err}
	close(t.done)
	return t
}

func (t *Task[T]) finish(res T, err error) {
	t.mu.Lock()
	t.result, t.err = res, err
	t.mu.Unlock()
}

// Done is closed when the task has finished or been cancelled.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Cancel aborts the task if its body has not started yet.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Group tracks running tasks so they can be cancelled and drained together.
type Group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGroup(parent context.Context) *Group {
	ctx, cancel := context.WithCancel(parent)
	return &Group{ctx: ctx, cancel: cancel}
}

// Context is the parent context for tasks in the group.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Go starts a task in the group.
func Go[T any](g *Group, delay time.Duration, fn func(ctx context.Context) (T, error)) *Task[T] {
	g.wg.Add(1)
	t := After(g.ctx, delay, fn)
	go func() {
		<-t.Done()
		g.wg.Done()
	}()
	return t
}

// Shutdown cancels every pending task and waits for all of them to exit.
func (g *Group) Shutdown(ctx context.Context) error {
	g.cancel()
	finished := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
