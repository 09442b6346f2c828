// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tokenmeter/internal/instrument"
	"github.com/jeranaias/tokenmeter/internal/logging"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// STORE TESTS
// =============================================================================

func TestStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first, err := store.Save(ctx, "  prefers tabs  ")
	require.NoError(t, err)
	assert.Equal(t, "prefers tabs", first.Content)
	assert.Equal(t, int64(3), first.Tokens)
	assert.NotEmpty(t, first.ID)

	_, err = store.Save(ctx, "lives in Lisbon")
	require.NoError(t, err)

	memories, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, memories, 2)
	assert.Equal(t, "prefers tabs", memories[0].Content)
	assert.Equal(t, "lives in Lisbon", memories[1].Content)
	assert.Equal(t, first.ID, memories[0].ID)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_EmptyContent(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Save(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrEmptyContent))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	mem, err := store.Save(ctx, "temporary")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, mem.ID))
	require.NoError(t, store.Delete(ctx, "missing"))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Footprint(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	empty, err := store.Footprint(ctx)
	require.NoError(t, err)
	assert.True(t, telemetry.Known(0).Equal(empty))

	_, err = store.Save(ctx, "abcd")
	require.NoError(t, err)
	_, err = store.Save(ctx, "efgh")
	require.NoError(t, err)

	// "- abcd\n- efgh" is 13 characters.
	got, err := store.Footprint(ctx)
	require.NoError(t, err)
	assert.True(t, telemetry.Known(4).Equal(got), "got %s", got)
}

func TestStore_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "memory.db")

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Save(ctx, "remember me")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_InMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(InMemory)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Save(ctx, "one")
	require.NoError(t, err)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err := store.Save(ctx, "x")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Delete(ctx, "x"), ErrClosed)
	_, err = store.Footprint(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

// =============================================================================
// REMEMBER TESTS
// =============================================================================

func TestRemember_FeedsUsageStore(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	usage := telemetry.NewStore(telemetry.WithLogger(logging.Discard()))
	refresher := NewRefresher(store, usage, 0, logging.Discard())
	adapter := instrument.NewAdapter(usage, refresher.Refresh, instrument.WithLogger(logging.Discard()))

	call, err := store.Remember(ctx, "call-1", "abcd")
	require.NoError(t, err)
	assert.Equal(t, instrument.SaveMemoryTool, call.Name)
	assert.Equal(t, instrument.StatusSuccess, call.Status)

	adapter.CompletedTools([]instrument.ToolCall{call})
	adapter.Wait()

	// "- abcd" is 6 characters.
	assert.Equal(t, int64(2), usage.Get().MemoryTokens)
}

func TestRemember_Failure(t *testing.T) {
	store := openTestStore(t)

	call, err := store.Remember(context.Background(), "call-2", "")
	require.ErrorIs(t, err, ErrEmptyContent)
	assert.Equal(t, "error", call.Status)

	usage := telemetry.NewStore()
	instrument.NewAdapter(usage, nil).CompletedTools([]instrument.ToolCall{call})
	assert.Zero(t, usage.Get().MemoryTokens)
}
