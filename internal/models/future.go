package models

import (
	"context"
	"sync"
)

type Result[T any] struct {
	Data T
	Err  error
}

// Future holds the eventual value of a piece of work running on the scheduler.
type Future[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
	value  T
}

func NewFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Resolve sets the value. Only the first call has an effect.
func (f *Future[T]) Resolve(v T) {
	f.once.Do(func() {
		f.value = v
		close(f.done)
	})
}

// Poll returns the value and true once the future is resolved.
func (f *Future[T]) Poll() (T, bool) {
	select {
	case <-f.done:
		return f.value, true
	default:
		var zero T
		return zero, false
	}
}

func (f *Future[T]) IsResolved() bool {
	_, ok := f.Poll()
	return ok
}

// C is closed when the future is resolved.
func (f *Future[T]) C() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Stop cancels the context the work is running with.
func (f *Future[T]) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
}
