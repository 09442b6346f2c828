// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"log/slog"
	"math"
)

// UpdateHighWaterMark raises the high-water mark to sent when it is larger
// than the stored mark, or unconditionally when the stored mark is unknown.
//
// It is a no-op for a nil api or an unknown count, and it never panics: a
// failing api leaves the stored state as it was.
func UpdateHighWaterMark(api API, sent Count) {
	if api == nil || !sent.IsKnown() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Debug("high-water mark update failed", "panic", r)
		}
	}()

	n, _ := sent.Value()
	if current, ok := api.Get().HighWaterMark.Value(); ok && n <= current {
		return
	}
	api.Update(Patch{}.HighWaterMark(sent))
}

// UpdateHighWaterMarkFloat is UpdateHighWaterMark for loosely-typed callers.
// NaN, infinite and negative values are ignored.
func UpdateHighWaterMarkFloat(api API, sent float64) {
	if math.IsNaN(sent) || math.IsInf(sent, 0) || sent < 0 {
		return
	}
	UpdateHighWaterMark(api, CountOf(sent))
}
