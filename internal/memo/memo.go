// Package memo caches the results of expensive fetches for the duration of a
// fixed time bucket.
//
// The bucket index is floor(now / bucket). A cached value is served only while
// the index that stored it is current, so within one bucket a key is fetched
// at most once, and the first call after a boundary fetches afresh. Keys must
// carry fully resolved argument values (defaults filled in) so that calls
// differing only in how an argument was spelled share an entry.
package memo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

const (
	DefaultBucket     = time.Hour
	DefaultMaxEntries = 256
)

// Func is the fetch a Memoizer wraps.
type Func[K comparable, V any] func(ctx context.Context, key K) (V, error)

type options struct {
	bucket     time.Duration
	maxEntries int
	clock      clockwork.Clock
	name       string
	metrics    *observability.Metrics
}

// Option configures a Memoizer.
type Option func(*options)

// WithBucket sets the window during which a result is reused.
func WithBucket(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.bucket = d
		}
	}
}

// WithMaxEntries bounds the number of cached results.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithClock sets the time source used to compute bucket indexes.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithMetrics records hits, misses and size under the given cache name.
func WithMetrics(m *observability.Metrics, name string) Option {
	return func(o *options) {
		o.metrics = m
		o.name = name
	}
}

type bucketKey[K comparable] struct {
	key    K
	bucket int64
}

// Memoizer caches fetch results per (key, bucket index). Failed fetches are
// not cached. It is safe for concurrent use; concurrent misses for the same
// key share a single fetch.
type Memoizer[K comparable, V any] struct {
	fetch Func[K, V]
	opts  options

	mu      sync.Mutex
	cache   *lruCache[bucketKey[K], V]
	current int64

	group singleflight.Group
}

// New wraps fetch in a Memoizer.
func New[K comparable, V any](fetch Func[K, V], opts ...Option) *Memoizer[K, V] {
	o := options{
		bucket:     DefaultBucket,
		maxEntries: DefaultMaxEntries,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memoizer[K, V]{
		fetch: fetch,
		opts:  o,
		cache: newLRUCache[bucketKey[K], V](o.maxEntries),
	}
}

// Get returns the cached value for key in the current bucket, calling the
// wrapped fetch on a miss.
func (m *Memoizer[K, V]) Get(ctx context.Context, key K) (V, error) {
	bk := bucketKey[K]{key: key, bucket: m.BucketIndex()}

	if v, ok := m.lookup(bk); ok {
		m.record("hit")
		return v, nil
	}
	m.record("miss")

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := m.group.DoChan(flightKey(bk), func() (any, error) {
		// Another caller may have filled the entry while this one waited.
		if v, ok := m.lookup(bk); ok {
			return v, nil
		}
		v, err := m.fetch(context.WithoutCancel(ctx), key)
		if err != nil {
			return nil, err
		}
		m.store(bk, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

// BucketIndex returns floor(now / bucket) for the memoizer's clock.
func (m *Memoizer[K, V]) BucketIndex() int64 {
	return m.opts.clock.Now().UnixNano() / int64(m.opts.bucket)
}

// Len returns the number of cached results.
func (m *Memoizer[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.len()
}

func (m *Memoizer[K, V]) lookup(bk bucketKey[K]) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.get(bk)
}

func (m *Memoizer[K, V]) store(bk bucketKey[K], v V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Entries from earlier buckets can never be served again.
	if bk.bucket > m.current {
		m.current = bk.bucket
		m.cache.removeFunc(func(k bucketKey[K]) bool { return k.bucket < bk.bucket })
	}
	m.cache.put(bk, v)

	if m.opts.metrics != nil {
		m.opts.metrics.CacheEntries.WithLabelValues(m.opts.name).Set(float64(m.cache.len()))
	}
}

func (m *Memoizer[K, V]) record(result string) {
	if m.opts.metrics == nil {
		return
	}
	m.opts.metrics.CacheLookups.WithLabelValues(m.opts.name, result).Inc()
}

func flightKey[K comparable](bk bucketKey[K]) string {
	return fmt.Sprintf("%d/%#v", bk.bucket, bk.key)
}
