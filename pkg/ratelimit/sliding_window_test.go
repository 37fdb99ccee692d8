package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestSlidingWindow_DeniesAfterLimit(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Window: time.Minute, Limit: 3}).WithClock(clock.Now)

	for i := 0; i < 3; i++ {
		d := l.Check("10.0.0.1")
		require.True(t, d.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 3-(i+1), d.Remaining)
		clock.Advance(time.Second)
	}

	d := l.Check("10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 57*time.Second, d.RetryAfter)
}

func TestSlidingWindow_AllowsAgainAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Window: time.Minute, Limit: 2}).WithClock(clock.Now)

	require.True(t, l.Allow("k"))
	require.True(t, l.Allow("k"))
	require.False(t, l.Allow("k"))

	clock.Advance(time.Minute)
	assert.True(t, l.Allow("k"))
}

func TestSlidingWindow_DeniedRequestsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Window: 10 * time.Second, Limit: 1}).WithClock(clock.Now)

	require.True(t, l.Allow("k"))
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		require.False(t, l.Allow("k"))
	}

	// only the first allowed stamp counts, so the key frees up 10s after it
	clock.Advance(5 * time.Second)
	assert.True(t, l.Allow("k"))
}

func TestSlidingWindow_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Window: time.Minute, Limit: 1}).WithClock(clock.Now)

	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))

	assert.True(t, l.Allow("b"))
	assert.True(t, l.Allow("c"))
	assert.False(t, l.Allow("b"))
}

func TestSlidingWindow_Defaults(t *testing.T) {
	l := New(Config{})
	assert.Equal(t, DefaultWindow, l.Window())
	assert.Equal(t, DefaultLimit, l.Limit())
}

func TestSlidingWindow_SweepEvictsIdleKeys(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{Window: time.Minute, Limit: 5}).WithClock(clock.Now)

	l.Allow("idle")
	clock.Advance(30 * time.Second)
	l.Allow("active")
	require.Equal(t, 2, l.Len())

	clock.Advance(40 * time.Second)
	evicted := l.Sweep()

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, l.Len())

	// evicted key starts over with a full budget
	d := l.Check("idle")
	assert.True(t, d.Allowed)
	assert.Equal(t, 4, d.Remaining)
}

func TestSlidingWindow_StartSweeperStopsWithContext(t *testing.T) {
	l := New(Config{Window: time.Millisecond, Limit: 1, SweepInterval: 5 * time.Millisecond})
	l.Allow("k")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	swept := make(chan int, 1)
	l.StartSweeper(ctx, func(n int) {
		select {
		case swept <- n:
		default:
		}
	})

	select {
	case <-swept:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestSlidingWindow_ConcurrentChecksNeverExceedLimit(t *testing.T) {
	l := New(Config{Window: time.Hour, Limit: 50})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed = map[string]int{}
	)

	for w := 0; w < 8; w++ {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					if l.Allow(key) {
						mu.Lock()
						allowed[key]++
						mu.Unlock()
					}
				}
			}(key)
		}
	}
	wg.Wait()

	for _, key := range []string{"a", "b"} {
		assert.Equal(t, 50, allowed[key], fmt.Sprintf("key %s", key))
	}
}
