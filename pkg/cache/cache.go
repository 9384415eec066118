package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/internhub/internhub/pkg/models"
)

// DefaultTTL is the freshness window used when New is given a non-positive TTL.
const DefaultTTL = 60 * time.Second

// ErrEmptyKey is returned when GetOrFetch is called with an empty key.
var ErrEmptyKey = errors.New("empty cache key")

// FetchFunc performs the live query for a cache key.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	fetchedAt time.Time
	tags      []string
}

type flight struct {
	key     string
	tags    []string
	dropped bool
}

// Cache is an in-memory read-through cache for store queries. Entries are
// served without I/O while younger than the TTL and are replaced wholesale on
// every live fetch. Stale entries are kept until overwritten or invalidated.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	// inflight holds the fetches currently running. An invalidation that
	// matches one marks it dropped so its result is not stored.
	inflight map[*flight]struct{}

	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger
	group *singleflight.Group

	hits          atomic.Int64
	misses        atomic.Int64
	fetchErrors   atomic.Int64
	invalidations atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used to report fetch failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithSingleFlight makes concurrent misses for the same key share one fetch.
func WithSingleFlight() Option {
	return func(c *Cache) { c.group = &singleflight.Group{} }
}

// New creates a Cache with the given freshness window.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries:  make(map[string]entry),
		inflight: make(map[*flight]struct{}),
		ttl:      ttl,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type getOptions struct {
	forceFresh bool
	tags       []string
}

// GetOption configures a single GetOrFetch call.
type GetOption func(*getOptions)

// ForceFresh bypasses any cached entry when force is true.
func ForceFresh(force bool) GetOption {
	return func(o *getOptions) { o.forceFresh = force }
}

// Tags attaches invalidation tags to the entry stored by this call.
func Tags(tags ...string) GetOption {
	return func(o *getOptions) { o.tags = append(o.tags, tags...) }
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetOrFetch returns the cached value for key if it is fresh. Otherwise it
// calls fetch, stores the result and returns it. A failed fetch is logged,
// leaves the cache unchanged and returns a nil value with the error.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc, opts ...GetOption) (any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !o.forceFresh {
		if v, ok := c.lookup(key); ok {
			c.hits.Add(1)
			return v, nil
		}
	}
	c.misses.Add(1)

	var (
		v   any
		err error
	)
	if c.group != nil && !o.forceFresh {
		// The shared fetch must outlive the caller that started it.
		shared := context.WithoutCancel(ctx)
		ch := c.group.DoChan(key, func() (any, error) {
			return c.fetchAndStore(shared, key, fetch, o.tags)
		})
		select {
		case res := <-ch:
			v, err = res.Val, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	} else {
		v, err = c.fetchAndStore(ctx, key, fetch, o.tags)
	}
	if err != nil {
		c.fetchErrors.Add(1)
		c.log.Error("query fetch failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return v, nil
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) fetchAndStore(ctx context.Context, key string, fetch FetchFunc, tags []string) (any, error) {
	fl := &flight{key: key, tags: tags}
	c.mu.Lock()
	c.inflight[fl] = struct{}{}
	c.mu.Unlock()
	fetchedAt := c.now()

	v, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, fl)
	if err != nil {
		return nil, err
	}
	if !fl.dropped {
		c.entries[key] = entry{value: v, fetchedAt: fetchedAt, tags: tags}
	}
	return v, nil
}

// dropFlights marks running fetches that match so they skip the store.
// Callers hold c.mu.
func (c *Cache) dropFlights(match func(string, entry) bool) {
	for fl := range c.inflight {
		if match(fl.key, entry{tags: fl.tags}) {
			fl.dropped = true
		}
	}
}

// Invalidate removes the entry for key. Removing an absent key is a no-op.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropFlights(func(k string, _ entry) bool { return k == key })
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.invalidations.Add(1)
	}
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropFlights(func(string, entry) bool { return true })
	c.invalidations.Add(int64(len(c.entries)))
	c.entries = make(map[string]entry)
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns how many were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	return c.invalidateWhere(func(key string, _ entry) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// InvalidateTag removes every entry carrying any of the given tags and
// returns how many were removed.
func (c *Cache) InvalidateTag(tags ...string) int {
	if len(tags) == 0 {
		return 0
	}
	return c.invalidateWhere(func(_ string, e entry) bool {
		for _, t := range e.tags {
			for _, want := range tags {
				if t == want {
					return true
				}
			}
		}
		return false
	})
}

func (c *Cache) invalidateWhere(match func(string, entry) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropFlights(match)
	n := 0
	for k, e := range c.entries {
		if match(k, e) {
			delete(c.entries, k)
			n++
		}
	}
	c.invalidations.Add(int64(n))
	return n
}

// Contains reports whether an entry, fresh or stale, exists for key.
func (c *Cache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of entries, including stale ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() models.CacheStats {
	return models.CacheStats{
		Entries:       int64(c.Len()),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		FetchErrors:   c.fetchErrors.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

// Fetch is a typed wrapper around GetOrFetch.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error), opts ...GetOption) (T, error) {
	var zero T
	v, err := c.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts...)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %q: unexpected value type %T", key, v)
	}
	return t, nil
}
