// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

func TestHandleCompression(t *testing.T) {
	api := newRecordingAPI()

	HandleCompression(api, CompressionEvent{
		OriginalTokenCount:   5000,
		NewTokenCount:        1200,
		CompressionThreshold: 4000,
	}, time.Now())

	snap := api.Get()
	assert.True(t, telemetry.Known(4000).Equal(snap.CompressionThreshold))
	assert.True(t, telemetry.Known(5000).Equal(snap.LastSuccessfulRequestTokenCount))
	assert.Equal(t, 1, api.Updates())
}

func TestHandleCompression_PartialEvent(t *testing.T) {
	api := newRecordingAPI()

	HandleCompression(api, CompressionEvent{OriginalTokenCount: -1, NewTokenCount: 10, CompressionThreshold: 2048}, time.Time{})

	snap := api.Get()
	assert.True(t, telemetry.Known(2048).Equal(snap.CompressionThreshold))
	assert.False(t, snap.LastSuccessfulRequestTokenCount.IsKnown())
}

func TestHandleCompression_NothingToRecord(t *testing.T) {
	api := newRecordingAPI()

	HandleCompression(api, CompressionEvent{OriginalTokenCount: -1, NewTokenCount: -1, CompressionThreshold: -1}, time.Now())

	assert.Zero(t, api.Updates())
}

func TestHandleCompression_Contained(t *testing.T) {
	require.NotPanics(t, func() {
		HandleCompression(nil, CompressionEvent{CompressionThreshold: 1}, time.Now())
		NewAdapter(panicAPI{}, nil).Compression(CompressionEvent{CompressionThreshold: 1}, time.Now())
	})
}
