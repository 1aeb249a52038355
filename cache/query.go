package cache

import (
	"context"
	"time"

	"github.com/frictionalfables/fable/faults"
)

type Options struct {
	// Enabled gates the query. While it reports false the query performs no
	// call at all and its status is Idle. A nil Enabled means always on.
	Enabled func() bool

	// FreshFor overrides the store's default freshness window.
	FreshFor time.Duration

	Retry RetryPolicy
}

// Query is a typed read handle bound to one cache key. All consumers of the
// same key share cache entries and in-flight calls regardless of which
// Query value they hold.
type Query[T any] struct {
	store *Store
	key   Key
	fetch func(context.Context) (T, error)
	opts  Options
}

func NewQuery[T any](store *Store, key Key, fetch func(context.Context) (T, error), opts Options) *Query[T] {
	return &Query[T]{
		store: store,
		key:   key,
		fetch: fetch,
		opts:  opts,
	}
}

func (q *Query[T]) Key() Key {
	return q.key
}

func (q *Query[T]) Enabled() bool {
	return q.opts.Enabled == nil || q.opts.Enabled()
}

// Status reports Idle while the query is disabled, regardless of what the
// underlying entry holds.
func (q *Query[T]) Status() Status {
	if !q.Enabled() {
		return StatusIdle
	}
	return q.store.StatusOf(q.key)
}

// Peek returns the last-known value without triggering a call.
func (q *Query[T]) Peek() (T, bool) {
	var zero T
	raw, status := q.store.Peek(q.key)
	if raw == nil || (status != StatusReady && status != StatusStale) {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Get resolves the query: cached value if fresh, otherwise one coalesced
// call through the retry policy. Disabled queries return ErrQueryDisabled
// without any network activity.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	var zero T

	if !q.Enabled() {
		return zero, faults.ErrQueryDisabled
	}

	raw, err := q.store.Fetch(ctx, q.key, q.opts.FreshFor, func(ctx context.Context) (any, error) {
		return q.opts.Retry.Run(ctx, func(ctx context.Context) (any, error) {
			return q.fetch(ctx)
		})
	})
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, nil
	}
	v, ok := raw.(T)
	if !ok {
		return zero, nil
	}
	return v, nil
}

// Invalidate marks this query's entry stale so the next Get refetches.
func (q *Query[T]) Invalidate() {
	q.store.Invalidate(PatternOf(q.key.Op, q.key.Args...))
}

// Subscribe registers fn for status transitions of this query's key.
func (q *Query[T]) Subscribe(fn func(Status)) func() {
	return q.store.Subscribe(q.key, func(_ Key, s Status) { fn(s) })
}
