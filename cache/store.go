package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
	StatusStale
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusStale:
		return "stale"
	default:
		return "idle"
	}
}

type entry struct {
	key    Key
	value  any
	err    error
	status Status
	done   chan struct{} // non-nil while a fetch is in flight
}

/*
	Store is the single shared mutable state of the client core. It owns
	every cached read, coalesces concurrent fetches per key, and applies
	declarative invalidation after mutations. UI-facing code never mutates
	it directly; everything goes through Query and Mutation handles.

	Freshness is tracked separately from the values themselves: an entry
	whose freshness marker has expired is served as stale (last-known value
	still readable) and refetched on the next Get.
*/

type Store struct {
	logger   *slog.Logger
	freshFor time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	subs    map[string]map[int]func(Key, Status)
	nextSub int

	fresh *ttlcache.Cache[string, struct{}]
}

func NewStore(logger *slog.Logger, freshFor time.Duration) *Store {
	if freshFor <= 0 {
		freshFor = 30 * time.Second
	}
	fresh := ttlcache.New(
		ttlcache.WithTTL[string, struct{}](freshFor),
		ttlcache.WithDisableTouchOnHit[string, struct{}](), // a read must not extend freshness
	)
	go fresh.Start()

	return &Store{
		logger:   logger.WithGroup("cache_store"),
		freshFor: freshFor,
		entries:  make(map[string]*entry),
		subs:     make(map[string]map[int]func(Key, Status)),
		fresh:    fresh,
	}
}

// Stop halts the freshness janitor. The store is unusable afterwards.
func (s *Store) Stop() {
	s.fresh.Stop()
}

// Subscribe registers a callback invoked on every status transition of the
// given key. The returned function cancels the subscription.
func (s *Store) Subscribe(key Key, fn func(Key, Status)) func() {
	k := key.String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[k] == nil {
		s.subs[k] = make(map[int]func(Key, Status))
	}
	id := s.nextSub
	s.nextSub++
	s.subs[k][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[k], id)
		if len(s.subs[k]) == 0 {
			delete(s.subs, k)
		}
	}
}

// collectNotify gathers the subscriber callbacks for a key while the lock is
// held; the caller invokes the result after unlocking.
func (s *Store) collectNotify(key Key, status Status) func() {
	subs := make([]func(Key, Status), 0, len(s.subs[key.String()]))
	for _, fn := range s.subs[key.String()] {
		subs = append(subs, fn)
	}
	if len(subs) == 0 {
		return func() {}
	}
	return func() {
		for _, fn := range subs {
			fn(key, status)
		}
	}
}

// Fetch resolves a key from cache or runs fn, guaranteeing at most one
// in-flight call per key. Concurrent callers attach to the pending result.
// freshFor overrides the store default when positive.
func (s *Store) Fetch(ctx context.Context, key Key, freshFor time.Duration, fn func(context.Context) (any, error)) (any, error) {
	k := key.String()

	s.mu.Lock()
	e := s.entries[k]
	if e == nil {
		e = &entry{key: key}
		s.entries[k] = e
	}

	if e.status == StatusReady && s.fresh.Has(k) {
		v := e.value
		s.mu.Unlock()
		return v, nil
	}

	if e.done != nil {
		done := e.done
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		s.mu.Lock()
		v, err := e.value, e.err
		s.mu.Unlock()
		return v, err
	}

	e.status = StatusLoading
	e.done = make(chan struct{})
	notify := s.collectNotify(key, StatusLoading)
	s.mu.Unlock()
	notify()

	value, err := fn(ctx)

	s.mu.Lock()
	e.value = value
	e.err = err
	if err != nil {
		e.status = StatusFailed
	} else {
		e.status = StatusReady
	}
	close(e.done)
	e.done = nil

	// If the store was cleared while the call was outstanding the entry is
	// an orphan: waiters still get their result, but the fresh cache and
	// subscribers of the new generation are left alone.
	current := s.entries[k] == e
	var notifyDone func()
	if current {
		if err == nil {
			ttl := s.freshFor
			if freshFor > 0 {
				ttl = freshFor
			}
			s.fresh.Set(k, struct{}{}, ttl)
		} else {
			s.fresh.Delete(k)
		}
		notifyDone = s.collectNotify(key, e.status)
	}
	s.mu.Unlock()

	if notifyDone != nil {
		notifyDone()
	}
	return value, err
}

// Put seeds a key with a known value ahead of any refetch. Used for the
// optimistic admin-session flip; the tentative value is still reconciled by
// the confirming refetch its mutation triggers.
func (s *Store) Put(key Key, value any) {
	k := key.String()

	s.mu.Lock()
	e := s.entries[k]
	if e == nil {
		e = &entry{key: key}
		s.entries[k] = e
	}
	if e.done == nil {
		e.value = value
		e.err = nil
		e.status = StatusReady
		s.fresh.Set(k, struct{}{}, s.freshFor)
	}
	notify := s.collectNotify(key, StatusReady)
	s.mu.Unlock()
	notify()
}

// Peek returns the last-known value without triggering any call.
func (s *Store) Peek(key Key) (any, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key.String()]
	if e == nil {
		return nil, StatusIdle
	}
	return e.value, s.effectiveStatusLocked(e)
}

// StatusOf reports the entry's status, folding freshness expiry into Stale.
func (s *Store) StatusOf(key Key) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[key.String()]
	if e == nil {
		return StatusIdle
	}
	return s.effectiveStatusLocked(e)
}

func (s *Store) effectiveStatusLocked(e *entry) Status {
	if e.status == StatusReady && !s.fresh.Has(e.key.String()) {
		return StatusStale
	}
	return e.status
}

// Invalidate marks every entry matching any of the patterns stale. The
// last-known value remains readable; the next Fetch issues a fresh call.
// Patterns that match nothing are a no-op. Returns the number of entries
// touched.
func (s *Store) Invalidate(patterns ...Pattern) int {
	s.mu.Lock()

	touched := 0
	var notifies []func()
	for _, e := range s.entries {
		for _, p := range patterns {
			if !p.Matches(e.key) {
				continue
			}
			s.fresh.Delete(e.key.String())
			if e.done == nil && (e.status == StatusReady || e.status == StatusFailed) {
				e.status = StatusStale
			}
			notifies = append(notifies, s.collectNotify(e.key, StatusStale))
			touched++
			break
		}
	}
	s.mu.Unlock()

	for _, n := range notifies {
		n()
	}
	if touched > 0 {
		s.logger.Debug("invalidated cache entries", "count", touched)
	}
	return touched
}

// Clear empties the store unconditionally. Invoked on logout so a previous
// identity's results can never leak into the next session. In-flight
// fetches complete against orphaned entries and are discarded.
func (s *Store) Clear() {
	s.mu.Lock()
	var notifies []func()
	for _, e := range s.entries {
		notifies = append(notifies, s.collectNotify(e.key, StatusIdle))
	}
	s.entries = make(map[string]*entry)
	s.fresh.DeleteAll()
	s.mu.Unlock()

	for _, n := range notifies {
		n()
	}
	s.logger.Debug("cache cleared")
}

// Len reports the number of entries currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
