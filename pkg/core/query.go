package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-drift/fiber/pkg/errors"
	"github.com/go-drift/fiber/pkg/scheduler"
)

// DefaultQueryExpiry is how long a cached query result stays fresh.
const DefaultQueryExpiry = 5 * time.Minute

// QueryCache holds fetched query results by key. It is safe for
// concurrent use.
type QueryCache struct {
	mu      sync.Mutex
	clock   scheduler.Clock
	entries map[string]queryEntry
}

type queryEntry struct {
	data any
	at   time.Time
}

// NewQueryCache creates an empty cache timed by clock, or the wall clock
// when clock is nil.
func NewQueryCache(clock scheduler.Clock) *QueryCache {
	if clock == nil {
		clock = scheduler.SystemClock
	}
	return &QueryCache{clock: clock, entries: make(map[string]queryEntry)}
}

// DefaultQueryCache is shared by roots created without WithQueryCache.
var DefaultQueryCache = NewQueryCache(nil)

// Get returns the value stored under key if it is younger than maxAge.
func (c *QueryCache) Get(key string, maxAge time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.clock.Now().Sub(e.at) >= maxAge {
		return nil, false
	}
	return e.data, true
}

// Set stores data under key, stamped with the current time.
func (c *QueryCache) Set(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = queryEntry{data: data, at: c.clock.Now()}
}

// Invalidate drops key.
func (c *QueryCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Fetcher loads the data for a query key. ctx is cancelled when the result
// is no longer wanted.
type Fetcher[T any] func(ctx context.Context, key string) (T, error)

// Query is the state of one UseQuery slot.
type Query[T any] struct {
	Data    T
	Loading bool
	Err     error
	// Refetch fetches again, bypassing the cache.
	Refetch func()
}

type queryConfig struct {
	enabled bool
	expiry  time.Duration
	cached  bool
}

// QueryOption configures UseQuery.
type QueryOption func(*queryConfig)

// QueryEnabled turns fetching on or off. A disabled query keeps its last
// result.
func QueryEnabled(enabled bool) QueryOption {
	return func(c *queryConfig) { c.enabled = enabled }
}

// QueryExpiry sets how long a cached result is served before refetching.
func QueryExpiry(d time.Duration) QueryOption {
	return func(c *queryConfig) { c.expiry = d }
}

// QueryNoCache neither reads nor writes the cache.
func QueryNoCache() QueryOption {
	return func(c *queryConfig) { c.cached = false }
}

type queryState[T any] struct {
	data    T
	loading bool
	err     error
}

// UseQuery fetches key with fetch when the component mounts and whenever
// key changes, serving fresh results from the root's QueryCache. fetch runs
// on its own goroutine; its result is delivered through Root.Dispatch and
// dropped if key changed or the component unmounted in the meantime. A
// panicking fetch is reported and surfaces as Err.
func UseQuery[T any](ctx *RenderContext, key string, fetch Fetcher[T], opts ...QueryOption) Query[T] {
	cfg := queryConfig{enabled: true, expiry: DefaultQueryExpiry, cached: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	root := ctx.root
	cache := root.queries

	state, set := UseLazyState(ctx, func() queryState[T] {
		if cfg.enabled && cfg.cached {
			if v, ok := cache.Get(key, cfg.expiry); ok {
				if data, ok := v.(T); ok {
					return queryState[T]{data: data}
				}
			}
		}
		return queryState[T]{loading: cfg.enabled}
	})
	nonce, setNonce := UseState(ctx, 0)
	force := UseRef(ctx, false)
	fetcher := UseRef(ctx, fetch)
	fetcher.Current = fetch

	UseEffect(ctx, func() func() {
		if !cfg.enabled {
			return nil
		}
		forced := force.Current
		force.Current = false
		if cfg.cached && !forced {
			if v, ok := cache.Get(key, cfg.expiry); ok {
				if data, ok := v.(T); ok {
					set.Set(queryState[T]{data: data})
					return nil
				}
			}
		}
		set.Update(func(prev queryState[T]) queryState[T] {
			prev.loading, prev.err = true, nil
			return prev
		})

		fctx, cancel := context.WithCancel(context.Background())
		fn := fetcher.Current
		go func() {
			data, err := runFetch(fctx, fn, key)
			root.Dispatch(func() {
				if fctx.Err() != nil {
					return
				}
				if err != nil {
					set.Update(func(prev queryState[T]) queryState[T] {
						prev.loading, prev.err = false, err
						return prev
					})
					return
				}
				if cfg.cached {
					cache.Set(key, data)
				}
				set.Set(queryState[T]{data: data})
			})
		}()
		return cancel
	}, Deps(key, cfg.enabled, nonce))

	return Query[T]{
		Data:    state.data,
		Loading: state.loading,
		Err:     state.err,
		Refetch: func() {
			force.Current = true
			setNonce.Update(func(n int) int { return n + 1 })
		},
	}
}

func runFetch[T any](ctx context.Context, fetch Fetcher[T], key string) (data T, err error) {
	defer errors.RecoverWithCallback("core.UseQuery", func(r any) {
		err = fmt.Errorf("query %q: fetch panicked: %v", key, r)
	})
	return fetch(ctx, key)
}
