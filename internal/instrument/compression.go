// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"log/slog"
	"time"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// CompressionEvent reports that the session history was compressed.
// Negative values mean the sender did not supply the field.
type CompressionEvent struct {
	OriginalTokenCount   int64 `json:"originalTokenCount"`
	NewTokenCount        int64 `json:"newTokenCount"`
	CompressionThreshold int64 `json:"compressionThreshold"`
}

// HandleCompression records the compression threshold and treats the
// pre-compression size as the request size of record. The timestamp is
// logged but not stored.
func HandleCompression(api telemetry.API, ev CompressionEvent, at time.Time) {
	handleCompression(api, ev, at, slog.Default())
}

func handleCompression(api telemetry.API, ev CompressionEvent, at time.Time, logger *slog.Logger) {
	if api == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("compression instrumentation failed", "panic", r)
		}
	}()

	var patch telemetry.Patch
	if threshold := telemetry.Known(ev.CompressionThreshold); threshold.IsKnown() {
		patch = patch.CompressionThreshold(threshold)
	}
	if original := telemetry.Known(ev.OriginalTokenCount); original.IsKnown() {
		patch = patch.LastRequestTokens(original)
	}
	if patch.Empty() {
		return
	}

	api.Update(patch)
	logger.Debug("chat compressed",
		"original_tokens", ev.OriginalTokenCount,
		"new_tokens", ev.NewTokenCount,
		"threshold", ev.CompressionThreshold,
		"at", at,
	)
}
