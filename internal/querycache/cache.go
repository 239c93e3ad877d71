// Package querycache keeps a single remote query result in memory with
// request de-duplication and stale-time based refetch avoidance.
package querycache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Observer receives cache hit/miss observations
type Observer interface {
	CacheHit(ctx context.Context, key string)
	CacheMiss(ctx context.Context, key string)
}

type noopObserver struct{}

func (noopObserver) CacheHit(context.Context, string)  {}
func (noopObserver) CacheMiss(context.Context, string) {}

// FetchFunc loads the authoritative value
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is the cached value with its metadata
type Snapshot[T any] struct {
	Data      T
	FetchedAt time.Time
	Version   uint64
}

// Query caches the result of a FetchFunc under a key.
// The cached value is only ever replaced by a successful fetch, and never by
// a fetch that started before the one that produced it.
type Query[T any] struct {
	key       string
	fetch     FetchFunc[T]
	staleTime time.Duration
	observer  Observer
	now       func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	snap     *Snapshot[T]
	snapGen  uint64
	gen      uint64
	version  uint64
	fetching int
	lastErr  error
}

// Option configures a Query
type Option func(*options)

type options struct {
	observer Observer
	now      func() time.Time
}

// WithObserver sets the hit/miss observer
func WithObserver(o Observer) Option {
	return func(opts *options) {
		opts.observer = o
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(opts *options) {
		opts.now = now
	}
}

// New creates a query. staleTime <= 0 means every Get refetches.
func New[T any](key string, staleTime time.Duration, fetch FetchFunc[T], opts ...Option) *Query[T] {
	o := options{observer: noopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Query[T]{
		key:       key,
		fetch:     fetch,
		staleTime: staleTime,
		observer:  o.observer,
		now:       o.now,
	}
}

// Key returns the query key
func (q *Query[T]) Key() string {
	return q.key
}

// Get returns the cached value when fresh, fetching it otherwise.
// Concurrent callers share one in-flight request.
func (q *Query[T]) Get(ctx context.Context) (Snapshot[T], error) {
	if snap, ok := q.fresh(); ok {
		q.observer.CacheHit(ctx, q.key)
		return snap, nil
	}
	q.observer.CacheMiss(ctx, q.key)

	q.mu.RLock()
	gen := q.gen
	q.mu.RUnlock()

	return q.do(ctx, gen, true)
}

// Refetch forces a fetch. It never joins a request started before the call,
// so a refetch issued after a mutation observes that mutation. Concurrent
// refetches and reads arriving later share its request.
func (q *Query[T]) Refetch(ctx context.Context) (Snapshot[T], error) {
	q.mu.Lock()
	q.gen++
	gen := q.gen
	q.mu.Unlock()

	return q.do(ctx, gen, false)
}

// do runs or joins the fetch of generation gen. The fetch is detached from
// ctx so one cancelled caller does not fail the others; ctx only bounds how
// long this caller waits.
func (q *Query[T]) do(ctx context.Context, gen uint64, reuseFresh bool) (Snapshot[T], error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := q.group.DoChan(q.key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		// a caller that lost the race to a finished fetch reuses its result
		if reuseFresh {
			if snap, ok := q.fresh(); ok {
				return snap, nil
			}
		}
		return q.load(fetchCtx, gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Snapshot[T]{}, res.Err
		}
		return res.Val.(Snapshot[T]), nil
	case <-ctx.Done():
		return Snapshot[T]{}, ctx.Err()
	}
}

// Peek returns the cached value without fetching
func (q *Query[T]) Peek() (Snapshot[T], bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.snap == nil {
		return Snapshot[T]{}, false
	}
	return *q.snap, true
}

// Invalidate marks the cached value stale so the next Get refetches.
// The value stays readable through Peek.
func (q *Query[T]) Invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.snap != nil {
		q.snap.FetchedAt = time.Time{}
	}
}

// Fetching reports whether a fetch is in flight
func (q *Query[T]) Fetching() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.fetching > 0
}

// LastError returns the error of the last fetch, nil after a success
func (q *Query[T]) LastError() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.lastErr
}

func (q *Query[T]) fresh() (Snapshot[T], bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.snap == nil || q.snap.FetchedAt.IsZero() || q.staleTime <= 0 {
		return Snapshot[T]{}, false
	}
	if q.now().Sub(q.snap.FetchedAt) >= q.staleTime {
		return Snapshot[T]{}, false
	}
	return *q.snap, true
}

func (q *Query[T]) load(ctx context.Context, gen uint64) (Snapshot[T], error) {
	q.mu.Lock()
	q.fetching++
	q.mu.Unlock()

	data, err := q.fetch(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.fetching--

	// a fetch started later already landed: its result wins
	if q.snap != nil && gen < q.snapGen {
		return *q.snap, nil
	}

	q.lastErr = err
	if err != nil {
		return Snapshot[T]{}, err
	}

	q.version++
	q.snapGen = gen
	q.snap = &Snapshot[T]{
		Data:      data,
		FetchedAt: q.now(),
		Version:   q.version,
	}
	return *q.snap, nil
}
