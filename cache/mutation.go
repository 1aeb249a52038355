package cache

import (
	"context"
	"sync/atomic"
)

// Seed is a known value applied to a key ahead of its confirming refetch.
type Seed struct {
	Key   Key
	Value any
}

/*
	Mutation executes a remote write and keeps reads consistent afterwards.
	Invalidation is declarative (a list of patterns derived from the
	parameters) and strictly ordered after the remote call has succeeded;
	a failed mutation invalidates nothing. The optional optimistic seeds are
	applied before invalidation so the UI sees the tentative value while the
	refetch reconciles it.
*/

type Mutation[P any, R any] struct {
	store       *Store
	name        string
	action      func(context.Context, P) (R, error)
	invalidates func(P) []Pattern
	optimistic  func(P) []Seed
	pending     atomic.Int32
}

func NewMutation[P any, R any](store *Store, name string, action func(context.Context, P) (R, error)) *Mutation[P, R] {
	return &Mutation[P, R]{
		store:  store,
		name:   name,
		action: action,
	}
}

// WithInvalidation declares the patterns to invalidate on success.
func (m *Mutation[P, R]) WithInvalidation(fn func(P) []Pattern) *Mutation[P, R] {
	m.invalidates = fn
	return m
}

// WithOptimistic declares seeds applied on success ahead of the refetch.
func (m *Mutation[P, R]) WithOptimistic(fn func(P) []Seed) *Mutation[P, R] {
	m.optimistic = fn
	return m
}

func (m *Mutation[P, R]) Name() string {
	return m.name
}

// Pending reports whether a Do call is currently outstanding, so callers
// can suppress duplicate submission.
func (m *Mutation[P, R]) Pending() bool {
	return m.pending.Load() > 0
}

func (m *Mutation[P, R]) Do(ctx context.Context, params P) (R, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	var zero R
	result, err := m.action(ctx, params)
	if err != nil {
		return zero, err
	}

	if m.optimistic != nil {
		for _, seed := range m.optimistic(params) {
			m.store.Put(seed.Key, seed.Value)
		}
	}
	if m.invalidates != nil {
		m.store.Invalidate(m.invalidates(params)...)
	}
	return result, nil
}
