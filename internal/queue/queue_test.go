// ABOUTME: Tests for the bounded FIFO queue
// ABOUTME: Validates ordering, bounded waits, capacity and concurrent producers

package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := New[any](10)
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, "a"))
	require.NoError(t, q.Put(ctx, "b"))
	require.NoError(t, q.Put(ctx, nil))

	for _, want := range []any{"a", "b", nil} {
		got, err := q.Get(ctx, 10*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestQueue_Get_TimesOut(t *testing.T) {
	q := New[string](1)

	start := time.Now()
	_, err := q.Get(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestQueue_Get_Cancelled(t *testing.T) {
	q := New[string](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Get(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_Get_PrefersReadyItem(t *testing.T) {
	q := New[string](1)
	require.NoError(t, q.TryPut("ready"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := q.Get(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
}

func TestQueue_Capacity(t *testing.T) {
	q := New[int](2)
	assert.Equal(t, 2, q.Cap())

	require.NoError(t, q.TryPut(1))
	require.NoError(t, q.TryPut(2))
	assert.ErrorIs(t, q.TryPut(3), ErrFull)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Put(ctx, 3), context.DeadlineExceeded)

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []int{1, 2}, q.Drain())
	assert.Equal(t, 0, q.Len())
}

func TestQueue_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New[int](0).Cap())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := New[int](1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = q.Put(ctx, i)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, q.Drain(), 1000)
}
