package memo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

type stationKey struct {
	River     string
	Parameter string
}

type countingFetch struct {
	calls atomic.Int64
	err   error
}

func (c *countingFetch) fetch(_ context.Context, k stationKey) ([]string, error) {
	n := c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return []string{k.River, k.Parameter, strconv.FormatInt(n, 10)}, nil
}

// start sits 10 minutes into an hour bucket.
var start = time.Date(2024, 5, 1, 9, 10, 0, 0, time.UTC)

func TestMemoizer_SameBucketFetchesOnce(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	f := &countingFetch{}
	m := New(f.fetch, WithClock(clock), WithBucket(time.Hour))
	key := stationKey{River: "River Thames", Parameter: "level"}

	first, err := m.Get(context.Background(), key)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	second, err := m.Get(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.calls.Load())
	assert.Equal(t, first, second)
}

func TestMemoizer_CrossingBoundaryFetchesAgain(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	f := &countingFetch{}
	m := New(f.fetch, WithClock(clock), WithBucket(time.Hour))
	key := stationKey{River: "River Thames", Parameter: "level"}

	_, err := m.Get(context.Background(), key)
	require.NoError(t, err)

	// 09:10 -> 10:05 is under an hour apart but straddles the 10:00 boundary.
	clock.Advance(55 * time.Minute)
	_, err = m.Get(context.Background(), key)
	require.NoError(t, err)
	_, err = m.Get(context.Background(), key)
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.calls.Load())
}

func TestMemoizer_DistinctKeysFetchSeparately(t *testing.T) {
	f := &countingFetch{}
	m := New(f.fetch, WithClock(clockwork.NewFakeClockAt(start)))

	_, _ = m.Get(context.Background(), stationKey{River: "River Thames", Parameter: "level"})
	_, _ = m.Get(context.Background(), stationKey{River: "River Thames", Parameter: "flow"})
	_, _ = m.Get(context.Background(), stationKey{River: "River Thames", Parameter: "level"})

	assert.Equal(t, int64(2), f.calls.Load())
}

func TestMemoizer_ErrorsAreNotCached(t *testing.T) {
	f := &countingFetch{err: errors.New("upstream down")}
	m := New(f.fetch, WithClock(clockwork.NewFakeClockAt(start)))
	key := stationKey{River: "River Thames", Parameter: "level"}

	_, err := m.Get(context.Background(), key)
	require.Error(t, err)

	f.err = nil
	v, err := m.Get(context.Background(), key)
	require.NoError(t, err)
	assert.NotEmpty(t, v)
	assert.Equal(t, int64(2), f.calls.Load())
	assert.Equal(t, 1, m.Len())
}

func TestMemoizer_OldBucketsEvicted(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	f := &countingFetch{}
	m := New(f.fetch, WithClock(clock))

	_, _ = m.Get(context.Background(), stationKey{River: "A"})
	_, _ = m.Get(context.Background(), stationKey{River: "B"})
	assert.Equal(t, 2, m.Len())

	clock.Advance(time.Hour)
	_, _ = m.Get(context.Background(), stationKey{River: "A"})
	assert.Equal(t, 1, m.Len())
}

func TestMemoizer_MaxEntries(t *testing.T) {
	f := &countingFetch{}
	m := New(f.fetch, WithClock(clockwork.NewFakeClockAt(start)), WithMaxEntries(2))

	_, _ = m.Get(context.Background(), stationKey{River: "A"})
	_, _ = m.Get(context.Background(), stationKey{River: "B"})
	_, _ = m.Get(context.Background(), stationKey{River: "C"}) // evicts A
	assert.Equal(t, 2, m.Len())

	_, _ = m.Get(context.Background(), stationKey{River: "A"})
	assert.Equal(t, int64(4), f.calls.Load())
}

func TestMemoizer_ConcurrentMissesShareFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int64
	fetch := func(_ context.Context, k string) (string, error) {
		calls.Add(1)
		<-release
		return k, nil
	}
	m := New(fetch, WithClock(clockwork.NewFakeClockAt(start)))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(context.Background(), "Sunbury")
			assert.NoError(t, err)
			assert.Equal(t, "Sunbury", v)
		}()
	}
	// Let the goroutines pile up behind the first fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestMemoizer_CancelledCallerDoesNotFailOthers(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	var fetchErr atomic.Value
	fetch := func(ctx context.Context, k string) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		if err := ctx.Err(); err != nil {
			fetchErr.Store(err)
			return "", err
		}
		return k, nil
	}
	m := New(fetch, WithClock(clockwork.NewFakeClockAt(start)))

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := m.Get(ctx, "Sunbury")
		leaderErr <- err
	}()
	<-entered

	type result struct {
		v   string
		err error
	}
	follower := make(chan result, 1)
	go func() {
		v, err := m.Get(context.Background(), "Sunbury")
		follower <- result{v, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, "Sunbury", got.v)
	assert.Nil(t, fetchErr.Load())
	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, 1, m.Len())
}

func TestMemoizer_Metrics(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	f := &countingFetch{}
	m := New(f.fetch, WithClock(clockwork.NewFakeClockAt(start)), WithMetrics(metrics, "stations"))
	key := stationKey{River: "River Thames"}

	_, _ = m.Get(context.Background(), key)
	_, _ = m.Get(context.Background(), key)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("stations", "miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("stations", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.CacheEntries.WithLabelValues("stations")), 0)
}

func TestBucketIndex(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Unix(7200, 0))
	m := New(func(context.Context, int) (int, error) { return 0, nil }, WithClock(clock), WithBucket(time.Hour))

	assert.Equal(t, int64(2), m.BucketIndex())
	clock.Advance(59 * time.Minute)
	assert.Equal(t, int64(2), m.BucketIndex())
	clock.Advance(time.Minute)
	assert.Equal(t, int64(3), m.BucketIndex())
}
