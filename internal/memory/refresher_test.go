// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tokenmeter/internal/logging"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

func TestRefresher_PatchesMemoryTokens(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	usage := telemetry.NewStore()

	_, err := store.Save(ctx, "a fact worth keeping around")
	require.NoError(t, err)

	r := NewRefresher(store, usage, 0, logging.Discard())
	require.NoError(t, r.Refresh(ctx))

	// "- a fact worth keeping around" is 29 characters.
	assert.Equal(t, int64(8), usage.Get().MemoryTokens)
}

func TestRefresher_Throttles(t *testing.T) {
	store := openTestStore(t)
	usage := telemetry.NewStore()
	r := NewRefresher(store, usage, time.Hour, nil)

	require.NoError(t, r.Refresh(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, r.Refresh(ctx))
}

func TestRefresher_ClosedStore(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Close())

	r := NewRefresher(store, telemetry.NewStore(), 0, nil)
	assert.ErrorIs(t, r.Refresh(context.Background()), ErrClosed)
}

func TestRefresher_NilAPI(t *testing.T) {
	r := NewRefresher(openTestStore(t), nil, 0, nil)
	assert.NoError(t, r.Refresh(context.Background()))
}
