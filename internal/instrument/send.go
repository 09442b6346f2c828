// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"log/slog"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// TrackSend estimates an outbound payload, records it as the current input
// size and offers it to the high-water mark. The estimate is returned even
// when api is nil.
func TrackSend(api telemetry.API, payload any) telemetry.Count {
	return trackSend(api, payload, slog.Default())
}

func trackSend(api telemetry.API, payload any, logger *slog.Logger) telemetry.Count {
	estimate := telemetry.EstimateTokenCount(payload)
	if api == nil {
		return estimate
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Debug("send instrumentation failed", "panic", r)
			}
		}()
		if n, ok := estimate.Value(); ok {
			api.Update(telemetry.Patch{}.CurrentInputTokens(n))
		}
	}()

	telemetry.UpdateHighWaterMark(api, estimate)
	return estimate
}
