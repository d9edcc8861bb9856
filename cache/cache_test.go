package cache

import (
	"errors"
	"sync"
	"sync/atomic"
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
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func countingLoader(calls *int) func() (any, error) {
	return func() (any, error) {
		*calls++
		return *calls, nil
	}
}

func TestGetOrLoadHonoursTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	ttl := 300 * time.Second
	calls := 0

	v, hit, err := c.GetOrLoad("top_series_viewers_10", ttl, countingLoader(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, v)

	clock.Advance(299 * time.Second)
	v, hit, err = c.GetOrLoad("top_series_viewers_10", ttl, countingLoader(&calls))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, v, "within the TTL the cached result is returned")

	clock.Advance(2 * time.Second)
	v, hit, err = c.GetOrLoad("top_series_viewers_10", ttl, countingLoader(&calls))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, v, "past the TTL the query runs again")
	assert.Equal(t, 2, calls)
}

func TestGetExpiresAtExactlyTTL(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	c.Set("k", "v")
	clock.Advance(time.Minute)

	_, ok := c.Get("k", time.Minute)
	assert.False(t, ok)
	v, ok := c.Get("k", time.Minute+time.Nanosecond)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestGetOrLoadDoesNotStoreErrors(t *testing.T) {
	c := New()
	boom := errors.New("connection refused")

	_, _, err := c.GetOrLoad("k", time.Minute, func() (any, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Stats().Entries)

	v, hit, err := c.GetOrLoad("k", time.Minute, func() (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ok", v)
}

func TestInvalidateSingleKey(t *testing.T) {
	c := New()
	c.Set("series_by_country", 1)
	c.Set("series_by_type", 2)

	c.Invalidate("series_by_country")

	_, ok := c.Get("series_by_country", time.Hour)
	assert.False(t, ok)
	v, ok := c.Get("series_by_type", time.Hour)
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInvalidateAll(t *testing.T) {
	c := New()
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	c.Invalidate("")

	assert.Equal(t, 0, c.Stats().Entries)
	for _, key := range []string{"a", "b", "c"} {
		_, ok := c.Get(key, time.Hour)
		assert.False(t, ok, key)
	}
}

func TestInvalidateDuringLoadDiscardsResult(t *testing.T) {
	c := New()

	v, _, err := c.GetOrLoad("k", time.Hour, func() (any, error) {
		c.Invalidate("")
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v)

	_, ok := c.Get("k", time.Hour)
	assert.False(t, ok)
}

func TestReadAfterInvalidateDoesNotJoinEarlierLoad(t *testing.T) {
	c := New()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan any)

	go func() {
		v, _, err := c.GetOrLoad("k", time.Hour, func() (any, error) {
			close(started)
			<-release
			return "old", nil
		})
		assert.NoError(t, err)
		done <- v
	}()
	<-started

	c.Invalidate("")
	v, _, err := c.GetOrLoad("k", time.Hour, func() (any, error) {
		return "new", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", v)

	close(release)
	assert.Equal(t, "old", <-done)

	cached, ok := c.Get("k", time.Hour)
	require.True(t, ok)
	assert.Equal(t, "new", cached)
}

func TestConcurrentLoadsAreCollapsed(t *testing.T) {
	c := New()
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, err := c.GetOrLoad("slow", time.Hour, func() (any, error) {
				calls.Add(1)
				<-release
				return "rows", nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(len(results)))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	for _, v := range results {
		assert.Equal(t, "rows", v)
	}
}

func TestStatsAndPurge(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	c.Set("old", 1)
	clock.Advance(10 * time.Minute)
	c.Set("new", 2)
	c.Get("new", time.Minute)
	c.Get("missing", time.Minute)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, []string{"new", "old"}, stats.Keys)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	removed := c.Purge(5 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"new"}, c.Stats().Keys)
}
