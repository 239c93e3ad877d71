package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingObserver struct {
	hits, misses atomic.Int32
}

func (o *countingObserver) CacheHit(context.Context, string)  { o.hits.Add(1) }
func (o *countingObserver) CacheMiss(context.Context, string) { o.misses.Add(1) }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestQuery_StaleTime(t *testing.T) {
	clk := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	obs := &countingObserver{}
	var calls atomic.Int32

	q := New("publications", 30*time.Second, func(ctx context.Context) ([]int, error) {
		n := calls.Add(1)
		return []int{int(n)}, nil
	}, WithObserver(obs), WithClock(clk.Now))
	ctx := context.Background()

	s1, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s1.Data)
	assert.EqualValues(t, 1, s1.Version)

	clk.Advance(10 * time.Second)
	s2, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	clk.Advance(30 * time.Second)
	s3, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, s3.Data)
	assert.EqualValues(t, 2, s3.Version)

	assert.EqualValues(t, 1, obs.hits.Load())
	assert.EqualValues(t, 2, obs.misses.Load())
}

func TestQuery_InvalidateAndRefetch(t *testing.T) {
	var calls atomic.Int32
	q := New("k", time.Hour, func(ctx context.Context) (int32, error) {
		return calls.Add(1), nil
	})
	ctx := context.Background()

	_, ok := q.Peek()
	assert.False(t, ok)

	_, err := q.Get(ctx)
	require.NoError(t, err)

	q.Invalidate()
	snap, ok := q.Peek()
	require.True(t, ok)
	assert.EqualValues(t, 1, snap.Data)

	snap, err = q.Get(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.Data)

	snap, err = q.Refetch(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, snap.Data)
}

func TestQuery_FailedFetchKeepsValue(t *testing.T) {
	boom := errors.New("boom")
	fail := false
	q := New("k", 0, func(ctx context.Context) (string, error) {
		if fail {
			return "", boom
		}
		return "ok", nil
	})
	ctx := context.Background()

	_, err := q.Get(ctx)
	require.NoError(t, err)

	fail = true
	_, err = q.Refetch(ctx)
	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, q.LastError(), boom)

	snap, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "ok", snap.Data)
	assert.EqualValues(t, 1, snap.Version)
}

func TestQuery_DeduplicatesConcurrentFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	q := New("k", time.Hour, func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return 7, nil
	})
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := q.Get(ctx)
			if err == nil {
				results <- snap.Data
			}
		}()
	}

	<-entered
	assert.True(t, q.Fetching())
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, q.Fetching())
	for v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestQuery_RefetchDoesNotJoinEarlierFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	var remote, calls atomic.Int32
	remote.Store(1)
	entered := make(chan struct{})
	release := make(chan struct{})

	q := New("k", time.Hour, func(ctx context.Context) (int32, error) {
		v := remote.Load()
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return v, nil
	})
	ctx := context.Background()

	done := make(chan Snapshot[int32])
	go func() {
		snap, _ := q.Get(ctx)
		done <- snap
	}()

	// the read holds the old value while the remote changes
	<-entered
	remote.Store(2)

	snap, err := q.Refetch(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, snap.Data)

	close(release)
	earlier := <-done
	assert.EqualValues(t, 2, earlier.Data)

	cached, ok := q.Peek()
	require.True(t, ok)
	assert.EqualValues(t, 2, cached.Data)
	assert.NoError(t, q.LastError())
	assert.EqualValues(t, 2, calls.Load())
}

func TestQuery_LaterReadsJoinRefetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	q := New("k", time.Hour, func(ctx context.Context) (int32, error) {
		n := calls.Add(1)
		if n == 1 {
			close(entered)
			<-release
		}
		return n, nil
	})
	ctx := context.Background()

	errs := make(chan error, 2)
	go func() {
		_, err := q.Refetch(ctx)
		errs <- err
	}()
	<-entered
	go func() {
		_, err := q.Get(ctx)
		errs <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.EqualValues(t, 1, calls.Load())
}

func TestQuery_CancelledCallerDoesNotFailOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	q := New("k", time.Hour, func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 7, nil
	})

	cancelled, cancel := context.WithCancel(context.Background())
	first := make(chan error)
	go func() {
		_, err := q.Get(cancelled)
		first <- err
	}()
	<-entered

	second := make(chan Snapshot[int])
	go func() {
		snap, _ := q.Get(context.Background())
		second <- snap
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(release)
	snap := <-second
	assert.Equal(t, 7, snap.Data)
	assert.EqualValues(t, 1, calls.Load())
	assert.NoError(t, q.LastError())
}
