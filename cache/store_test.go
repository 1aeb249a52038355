package cache

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(testLogger(), time.Minute)
	t.Cleanup(s.Stop)
	return s
}

func TestFetchCoalescesConcurrentCallers(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("featuredBooks")

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return []string{"book-1", "book-2"}, nil
	}

	const n = 8
	results := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := s.Fetch(context.Background(), key, 0, fetch)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Let all goroutines attach to the in-flight call before it resolves.
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load(), "exactly one underlying call for N concurrent subscribers")
	for i := 1; i < n; i++ {
		require.Equal(t, results[0], results[i])
	}
}

func TestFetchServesFreshValueWithoutCall(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("siteAssets")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "assets", nil
	}

	for i := 0; i < 3; i++ {
		v, err := s.Fetch(context.Background(), key, 0, fetch)
		require.NoError(t, err)
		require.Equal(t, "assets", v)
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestInvalidateMarksStaleAndTriggersRefetch(t *testing.T) {
	s := newTestStore(t)
	ratings := NewKey("bookRatings", "B1")
	average := NewKey("bookAverageRating", "B1")
	unrelated := NewKey("bookRatings", "B2")

	var calls atomic.Int32
	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		return int(calls.Load()), nil
	}

	for _, k := range []Key{ratings, average, unrelated} {
		_, err := s.Fetch(context.Background(), k, 0, fetch)
		require.NoError(t, err)
	}
	require.Equal(t, int32(3), calls.Load())

	touched := s.Invalidate(PatternOf("bookRatings", "B1"), PatternOf("bookAverageRating", "B1"))
	require.Equal(t, 2, touched)
	require.Equal(t, StatusStale, s.StatusOf(ratings))
	require.Equal(t, StatusStale, s.StatusOf(average))
	require.Equal(t, StatusReady, s.StatusOf(unrelated))

	// Stale entries refetch; the untouched key is served from cache.
	_, err := s.Fetch(context.Background(), ratings, 0, fetch)
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), average, 0, fetch)
	require.NoError(t, err)
	_, err = s.Fetch(context.Background(), unrelated, 0, fetch)
	require.NoError(t, err)
	require.Equal(t, int32(5), calls.Load())
}

func TestInvalidateMissingKeyIsNoOp(t *testing.T) {
	s := newTestStore(t)

	require.NotPanics(t, func() {
		touched := s.Invalidate(PatternOf("bookRatings", "nope"))
		require.Zero(t, touched)
	})
	require.Zero(t, s.Len())
}

func TestArglessPatternInvalidatesEveryKeyOfOperation(t *testing.T) {
	s := newTestStore(t)

	fetch := func(ctx context.Context) (any, error) { return "v", nil }
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Fetch(context.Background(), NewKey("blogPost", id), 0, fetch)
		require.NoError(t, err)
	}

	touched := s.Invalidate(PatternOf("blogPost"))
	require.Equal(t, 3, touched)
}

func TestClearEmptiesEverything(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("callerUserProfile")

	var calls atomic.Int32
	_, err := s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
		calls.Add(1)
		return "profile-of-previous-identity", nil
	})
	require.NoError(t, err)

	s.Clear()
	require.Zero(t, s.Len())
	require.Equal(t, StatusIdle, s.StatusOf(key))

	// A subsequent identity-scoped read never sees the prior identity's value.
	v, err := s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
		calls.Add(2)
		return "fresh", nil
	})
	require.NoError(t, err)
	require.Equal(t, "fresh", v)
	require.Equal(t, int32(3), calls.Load())
}

func TestInFlightResultDiscardedAfterClear(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("callerUserProfile")

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			return "old-identity-value", nil
		})
	}()

	<-started
	s.Clear()
	close(release)

	// The completion lands on an orphaned entry; the store stays empty.
	require.Eventually(t, func() bool {
		return s.StatusOf(key) == StatusIdle && s.Len() == 0
	}, time.Second, time.Millisecond)
}

func TestWaiterObservesSharedError(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("forumThreads")
	boom := errors.New("server returned status 500")

	release := make(chan struct{})
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
				<-release
				return nil, boom
			})
			errs <- err
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(release)
	require.ErrorIs(t, <-errs, boom)
	require.ErrorIs(t, <-errs, boom)
	require.Equal(t, StatusFailed, s.StatusOf(key))
}

func TestFreshnessExpiryReportsStale(t *testing.T) {
	s := NewStore(testLogger(), 20*time.Millisecond)
	defer s.Stop()
	key := NewKey("newComings")

	_, err := s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
		return "v1", nil
	})
	require.NoError(t, err)
	require.Equal(t, StatusReady, s.StatusOf(key))

	require.Eventually(t, func() bool {
		return s.StatusOf(key) == StatusStale
	}, time.Second, 5*time.Millisecond)

	// The stale value remains readable until the refetch lands.
	v, status := s.Peek(key)
	require.Equal(t, "v1", v)
	require.Equal(t, StatusStale, status)
}

func TestSubscriberNotifiedOnTransitions(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("featuredBooks")

	var mu sync.Mutex
	var seen []Status
	cancel := s.Subscribe(key, func(_ Key, st Status) {
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})
	defer cancel()

	_, err := s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
		return "v", nil
	})
	require.NoError(t, err)
	s.Invalidate(PatternOf("featuredBooks"))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Status{StatusLoading, StatusReady, StatusStale}, seen)
}

func TestSubscribeCancelStopsNotifications(t *testing.T) {
	s := newTestStore(t)
	key := NewKey("featuredBooks")

	var count atomic.Int32
	cancel := s.Subscribe(key, func(Key, Status) { count.Add(1) })
	cancel()

	_, err := s.Fetch(context.Background(), key, 0, func(ctx context.Context) (any, error) {
		return "v", nil
	})
	require.NoError(t, err)
	require.Zero(t, count.Load())
}
