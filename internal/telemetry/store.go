// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// =============================================================================
// API
// =============================================================================

// API is the read/subscribe/update surface shared by everything that feeds
// or renders token usage.
type API interface {
	// Get returns the latest snapshot. It never blocks.
	Get() Snapshot

	// Subscribe registers fn. fn is called once right away with the current
	// snapshot and again after every update until the returned function is
	// called. The returned function may be called any number of times.
	Subscribe(fn func(Snapshot)) (unsubscribe func())

	// Update merges p into the current snapshot and notifies subscribers.
	Update(p Patch)
}

// =============================================================================
// STORE
// =============================================================================

// Store is the observable usage store. One Store is created per session and
// handed to every producer and consumer explicitly.
//
// Update deliveries run through a single drain loop, so each subscriber sees
// a strictly ordered, gap-free sequence of snapshots. A callback that calls
// Update re-enters the queue; its snapshot is delivered after the current
// round completes. Subscribe delivers the current snapshot before it
// returns, even from inside a callback; later deliveries to that subscriber
// wait for it. Calls to one subscriber never overlap. A callback that panics
// is logged and skipped.
type Store struct {
	current atomic.Pointer[Snapshot]

	mu       sync.Mutex
	subs     []*subscriber
	queue    []delivery
	draining bool
	nextID   uint64

	logger *slog.Logger
}

type subscriber struct {
	id     uint64
	fn     func(Snapshot)
	active atomic.Bool

	// mu is held while fn runs.
	mu sync.Mutex
}

type delivery struct {
	snapshot Snapshot
	targets  []*subscriber
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for subscriber failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSnapshot seeds the store with an initial snapshot instead of the defaults.
func WithSnapshot(snapshot Snapshot) Option {
	return func(s *Store) {
		s.current.Store(&snapshot)
	}
}

// NewStore creates a store holding DefaultSnapshot.
func NewStore(opts ...Option) *Store {
	s := &Store{logger: slog.Default()}
	initial := DefaultSnapshot()
	s.current.Store(&initial)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the latest snapshot.
func (s *Store) Get() Snapshot {
	return *s.current.Load()
}

// Subscribe registers fn and delivers the current snapshot to it before
// returning.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	sub := &subscriber{id: s.nextID, fn: fn}
	sub.active.Store(true)
	// Held until the first delivery is done so the drain loop cannot hand
	// this subscriber a newer snapshot ahead of it.
	sub.mu.Lock()
	s.subs = append(s.subs, sub)
	snapshot := *s.current.Load()
	claimed := !s.draining
	if claimed {
		s.draining = true
	}
	s.mu.Unlock()

	s.notify(sub, snapshot)
	sub.mu.Unlock()

	if claimed {
		s.run()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.active.Store(false)
			s.remove(sub)
		})
	}
}

// Update merges p into the current snapshot, publishes the result and
// notifies every subscriber registered at this point, in registration order.
func (s *Store) Update(p Patch) {
	s.publish(func(cur Snapshot) Snapshot {
		return p.Apply(cur)
	})
}

// Reset restores the default snapshot. The high-water mark is kept since it
// is monotonic for the lifetime of the store.
func (s *Store) Reset() {
	s.publish(func(cur Snapshot) Snapshot {
		next := DefaultSnapshot()
		next.HighWaterMark = raise(next.HighWaterMark, cur.HighWaterMark)
		return next
	})
}

// SubscriberCount returns the number of active subscribers.
func (s *Store) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Store) publish(next func(Snapshot) Snapshot) {
	s.mu.Lock()
	snapshot := next(*s.current.Load())
	s.current.Store(&snapshot)
	targets := make([]*subscriber, len(s.subs))
	copy(targets, s.subs)
	s.queue = append(s.queue, delivery{snapshot: snapshot, targets: targets})
	s.mu.Unlock()

	s.drain()
}

// drain delivers queued snapshots until the queue is empty. Only one caller
// drains at a time; everyone else just enqueues.
func (s *Store) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	s.run()
}

// run is the drain loop. The caller must have set draining.
func (s *Store) run() {
	s.mu.Lock()
	for len(s.queue) > 0 {
		d := s.queue[0]
		s.queue[0] = delivery{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		for _, sub := range d.targets {
			s.deliver(sub, d.snapshot)
		}

		s.mu.Lock()
	}

	s.queue = nil
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) deliver(sub *subscriber, snapshot Snapshot) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.active.Load() {
		s.notify(sub, snapshot)
	}
}

func (s *Store) notify(sub *subscriber, snapshot Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("usage subscriber panicked", "subscriber", sub.id, "panic", r)
		}
	}()
	sub.fn(snapshot)
}

func (s *Store) remove(target *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

var _ API = (*Store)(nil)
