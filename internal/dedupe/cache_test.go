// ABOUTME: Tests for the seen-event cache
// ABOUTME: Validates expiry, eviction order and single-winner semantics under contention

package dedupe

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(ttl time.Duration, size int) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(ttl, size)
	c.now = clock.Now
	return c, clock
}

func TestCache_Seen_FirstAndRepeat(t *testing.T) {
	c, _ := newTestCache(time.Minute, 10)

	assert.False(t, c.Seen("evt-1"), "first sighting")
	assert.True(t, c.Seen("evt-1"), "repeat within ttl")
	assert.False(t, c.Seen("evt-2"))
}

func TestCache_Seen_Expires(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10)

	assert.False(t, c.Seen("evt-1"))
	clock.Advance(2 * time.Minute)

	assert.False(t, c.Seen("evt-1"), "expired key counts as new")
	assert.Equal(t, 1, c.Len())
}

func TestCache_PrunesExpiredOnWrite(t *testing.T) {
	c, clock := newTestCache(time.Minute, 10)

	c.Seen("a")
	c.Seen("b")
	clock.Advance(2 * time.Minute)
	c.Seen("c")

	assert.Equal(t, 1, c.Len())
}

func TestCache_EvictsOldest(t *testing.T) {
	c, clock := newTestCache(time.Hour, 3)

	for _, key := range []string{"first", "second", "third"} {
		c.Seen(key)
		clock.Advance(time.Millisecond)
	}
	c.Seen("fourth")

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Seen("first"), "oldest key should have been evicted")
	assert.True(t, c.Seen("third"))
	assert.True(t, c.Seen("fourth"))
}

func TestCache_Seen_SingleWinner(t *testing.T) {
	c := New(time.Minute, 100)

	const goroutines = 100
	var winners int32
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if !c.Seen("contested") {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}
