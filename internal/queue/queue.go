// ABOUTME: Bounded multi-producer/multi-consumer FIFO queue over a buffered channel
// ABOUTME: Consumers poll with a bounded wait so they can observe shutdown promptly

package queue

import (
	"context"
	"errors"
	"time"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

// ErrEmpty is returned by Get when no item arrived within the wait interval.
var ErrEmpty = errors.New("queue empty")

// ErrFull is returned by TryPut when the queue is at capacity.
var ErrFull = errors.New("queue full")

// Queue is a bounded FIFO of items of type T.
type Queue[T any] struct {
	ch chan T
}

// New creates a queue holding at most capacity items.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Put appends item, blocking while the queue is full until ctx is done.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPut appends item without blocking.
func (q *Queue[T]) TryPut(item T) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return ErrFull
	}
}

// Get removes the oldest item, waiting at most wait for one to arrive.
// It returns ErrEmpty on timeout and ctx.Err() if ctx is done first.
func (q *Queue[T]) Get(ctx context.Context, wait time.Duration) (T, error) {
	var zero T

	// Prefer a ready item over a cancelled context.
	select {
	case item := <-q.ch:
		return item, nil
	default:
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case item := <-q.ch:
		return item, nil
	case <-timer.C:
		return zero, ErrEmpty
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Drain removes and returns every queued item without waiting.
func (q *Queue[T]) Drain() []T {
	var items []T
	for {
		select {
		case item := <-q.ch:
			items = append(items, item)
		default:
			return items
		}
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.ch)
}
