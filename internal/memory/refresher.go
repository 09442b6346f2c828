// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// Refresher reloads the memory footprint into a usage store.
type Refresher struct {
	store   *Store
	api     telemetry.API
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRefresher creates a refresher allowing one refresh per interval, with
// a burst of one. A non-positive interval disables throttling.
func NewRefresher(store *Store, api telemetry.API, interval time.Duration, logger *slog.Logger) *Refresher {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		store:   store,
		api:     api,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Refresh waits for its turn, recomputes the footprint and patches
// MemoryTokens. It has the signature of instrument.RefreshFunc.
func (r *Refresher) Refresh(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("memory refresh: %w", err)
	}

	var patched int64 = -1
	err := r.store.WithFootprint(ctx, func(footprint telemetry.Count) {
		n, ok := footprint.Value()
		if !ok || r.api == nil {
			return
		}
		r.api.Update(telemetry.Patch{}.MemoryTokens(n))
		patched = n
	})
	if err != nil {
		return fmt.Errorf("memory refresh: %w", err)
	}
	if patched >= 0 {
		r.logger.Debug("memory refreshed", "memory_tokens", patched)
	}
	return nil
}
