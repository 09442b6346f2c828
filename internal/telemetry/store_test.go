// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// GET / UPDATE TESTS
// =============================================================================

func TestStore_Defaults(t *testing.T) {
	store := NewStore()

	want := Snapshot{HighWaterMark: Known(0)}
	if diff := cmp.Diff(want, store.Get()); diff != "" {
		t.Errorf("default snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, store.Get().ModelContextLimit.IsKnown())
	assert.False(t, store.Get().LastSuccessfulRequestTokenCount.IsKnown())
}

func TestStore_UpdateMergesFields(t *testing.T) {
	store := NewStore()

	store.Update(Patch{}.MemoryTokens(789).LastRequestTokens(Known(1000)))
	store.Update(Patch{}.ModelContextLimit(Known(32768)))

	want := Snapshot{
		MemoryTokens:                    789,
		ModelContextLimit:               Known(32768),
		HighWaterMark:                   Known(0),
		LastSuccessfulRequestTokenCount: Known(1000),
	}
	if diff := cmp.Diff(want, store.Get()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateCanClearToUnknown(t *testing.T) {
	store := NewStore()
	store.Update(Patch{}.CompressionThreshold(Known(4000)))
	store.Update(Patch{}.CompressionThreshold(Unknown))

	assert.False(t, store.Get().CompressionThreshold.IsKnown())
}

func TestStore_SnapshotsAreValues(t *testing.T) {
	store := NewStore()
	before := store.Get()

	store.Update(Patch{}.CurrentInputTokens(12))

	assert.Equal(t, int64(0), before.CurrentInputTokens)
	assert.Equal(t, int64(12), store.Get().CurrentInputTokens)
}

func TestStore_WithSnapshot(t *testing.T) {
	seed := Snapshot{MemoryTokens: 5, HighWaterMark: Known(40)}
	store := NewStore(WithSnapshot(seed))

	assert.Equal(t, seed, store.Get())
}

// =============================================================================
// HIGH-WATER MARK MONOTONICITY
// =============================================================================

func TestStore_HighWaterMarkNeverDecreases(t *testing.T) {
	store := NewStore()
	rng := rand.New(rand.NewSource(7))

	var last int64
	for i := 0; i < 500; i++ {
		var p Patch
		switch rng.Intn(4) {
		case 0:
			p = p.HighWaterMark(Known(rng.Int63n(10_000)))
		case 1:
			p = p.HighWaterMark(Unknown)
		case 2:
			p = p.CurrentInputTokens(rng.Int63n(10_000))
		default:
			store.Reset()
			continue
		}
		store.Update(p)

		mark, ok := store.Get().HighWaterMark.Value()
		require.True(t, ok, "mark became unknown at step %d", i)
		require.GreaterOrEqual(t, mark, last, "mark decreased at step %d", i)
		last = mark
	}
}

func TestStore_ResetKeepsHighWaterMark(t *testing.T) {
	store := NewStore()
	store.Update(Patch{}.HighWaterMark(Known(50)).MemoryTokens(10).CompressionThreshold(Known(4000)))

	store.Reset()

	got := store.Get()
	assert.Equal(t, Known(50), got.HighWaterMark)
	assert.Equal(t, int64(0), got.MemoryTokens)
	assert.False(t, got.CompressionThreshold.IsKnown())
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func TestStore_SubscribeDeliversCurrentImmediately(t *testing.T) {
	store := NewStore()
	store.Update(Patch{}.MemoryTokens(42))

	var got []Snapshot
	unsubscribe := store.Subscribe(func(s Snapshot) { got = append(got, s) })
	defer unsubscribe()

	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].MemoryTokens)
}

func TestStore_SubscribeLifecycle(t *testing.T) {
	store := NewStore()

	calls := 0
	unsubscribe := store.Subscribe(func(Snapshot) { calls++ })
	assert.Equal(t, 1, calls)

	store.Update(Patch{}.CurrentInputTokens(1))
	store.Update(Patch{}.CurrentInputTokens(2))
	assert.Equal(t, 3, calls)

	unsubscribe()
	unsubscribe()
	store.Update(Patch{}.CurrentInputTokens(3))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, store.SubscriberCount())
}

func TestStore_NotifiesInRegistrationOrder(t *testing.T) {
	store := NewStore()

	var order []string
	store.Subscribe(func(Snapshot) { order = append(order, "first") })
	store.Subscribe(func(Snapshot) { order = append(order, "second") })
	store.Subscribe(func(Snapshot) { order = append(order, "third") })
	order = nil

	store.Update(Patch{}.MemoryTokens(1))

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestStore_PanickingSubscriberIsIsolated(t *testing.T) {
	store := NewStore()

	var seen []int64
	store.Subscribe(func(s Snapshot) {
		if s.MemoryTokens > 0 {
			panic("subscriber failure")
		}
	})
	store.Subscribe(func(s Snapshot) { seen = append(seen, s.MemoryTokens) })

	require.NotPanics(t, func() {
		store.Update(Patch{}.MemoryTokens(7))
	})
	assert.Equal(t, []int64{0, 7}, seen)
	assert.Equal(t, int64(7), store.Get().MemoryTokens)
}

func TestStore_ReentrantUpdateIsDeliveredInOrder(t *testing.T) {
	store := NewStore()

	var seen []int64
	store.Subscribe(func(s Snapshot) {
		seen = append(seen, s.CurrentInputTokens)
		if s.CurrentInputTokens == 1 {
			store.Update(Patch{}.CurrentInputTokens(2))
		}
	})

	store.Update(Patch{}.CurrentInputTokens(1))

	assert.Equal(t, []int64{0, 1, 2}, seen)
	assert.Equal(t, int64(2), store.Get().CurrentInputTokens)
}

func TestStore_SubscribeFromCallbackDeliversBeforeReturning(t *testing.T) {
	store := NewStore()

	var innerSeen []int64
	var ranBeforeReturn bool
	subscribed := false
	store.Subscribe(func(s Snapshot) {
		if s.CurrentInputTokens != 1 || subscribed {
			return
		}
		subscribed = true
		store.Subscribe(func(s Snapshot) {
			innerSeen = append(innerSeen, s.CurrentInputTokens)
		})
		ranBeforeReturn = len(innerSeen) == 1
	})

	store.Update(Patch{}.CurrentInputTokens(1))
	store.Update(Patch{}.CurrentInputTokens(2))

	assert.True(t, ranBeforeReturn, "inner callback should run before Subscribe returns")
	assert.Equal(t, []int64{1, 2}, innerSeen)
}

func TestStore_SubscribeWhileAnotherGoroutineDelivers(t *testing.T) {
	store := NewStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	store.Subscribe(func(s Snapshot) {
		if s.MemoryTokens == 1 {
			close(entered)
			<-release
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		store.Update(Patch{}.MemoryTokens(1))
	}()
	<-entered

	var mu sync.Mutex
	var late []int64
	store.Subscribe(func(s Snapshot) {
		mu.Lock()
		late = append(late, s.MemoryTokens)
		mu.Unlock()
	})

	mu.Lock()
	assert.Equal(t, []int64{1}, late, "late callback should run before Subscribe returns")
	mu.Unlock()

	close(release)
	wg.Wait()

	store.Update(Patch{}.MemoryTokens(2))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{1, 2}, late)
}

func TestStore_UpdateFromFirstDelivery(t *testing.T) {
	store := NewStore()

	var seen []int64
	store.Subscribe(func(s Snapshot) {
		seen = append(seen, s.CurrentInputTokens)
		if s.CurrentInputTokens == 0 {
			store.Update(Patch{}.CurrentInputTokens(5))
		}
	})

	assert.Equal(t, []int64{0, 5}, seen)
}

func TestStore_UnsubscribeDuringDelivery(t *testing.T) {
	store := NewStore()

	var secondCalls int
	var unsubscribeSecond func()
	store.Subscribe(func(s Snapshot) {
		if s.MemoryTokens == 1 {
			unsubscribeSecond()
		}
	})
	unsubscribeSecond = store.Subscribe(func(Snapshot) { secondCalls++ })

	store.Update(Patch{}.MemoryTokens(1))

	assert.Equal(t, 1, secondCalls, "only the initial delivery should reach the removed subscriber")
}

func TestStore_ConcurrentUpdatesAreGapFree(t *testing.T) {
	store := NewStore()

	var mu sync.Mutex
	var seen []int64
	store.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.CurrentInputTokens)
		mu.Unlock()
	})

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				store.Update(Patch{}.CurrentInputTokens(1).MemoryTokens(int64(i)))
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 1+writers*perWriter)
}

func TestStore_NilSubscriber(t *testing.T) {
	store := NewStore()
	unsubscribe := store.Subscribe(nil)
	require.NotNil(t, unsubscribe)
	unsubscribe()
	assert.Equal(t, 0, store.SubscriberCount())
}
