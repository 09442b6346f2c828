// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// DefaultRefreshTimeout bounds a single background memory refresh.
const DefaultRefreshTimeout = 10 * time.Second

// Adapter binds the instrumentation handlers to one session's store. Unlike
// the package-level functions it tracks the refresh goroutines it starts so
// a session can wait for them on teardown.
type Adapter struct {
	api            telemetry.API
	refresh        RefreshFunc
	processed      *ProcessedSet
	logger         *slog.Logger
	refreshTimeout time.Duration

	wg sync.WaitGroup
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRefreshTimeout bounds each background refresh. Zero disables the bound.
func WithRefreshTimeout(d time.Duration) AdapterOption {
	return func(a *Adapter) {
		a.refreshTimeout = d
	}
}

// WithProcessedSet shares a processed set between adapters.
func WithProcessedSet(set *ProcessedSet) AdapterOption {
	return func(a *Adapter) {
		if set != nil {
			a.processed = set
		}
	}
}

// NewAdapter creates an adapter feeding api. refresh may be nil.
func NewAdapter(api telemetry.API, refresh RefreshFunc, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		api:            api,
		refresh:        refresh,
		processed:      NewProcessedSet(),
		logger:         slog.Default(),
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CompletedTools handles a batch of completed tool calls.
func (a *Adapter) CompletedTools(calls []ToolCall) {
	handleCompletedTools(calls, a.api, a.processed, a.logger, a.startRefresh)
}

// Compression handles a compression notification.
func (a *Adapter) Compression(ev CompressionEvent, at time.Time) {
	handleCompression(a.api, ev, at, a.logger)
}

// Send handles an outbound message and returns its estimate.
func (a *Adapter) Send(payload any) telemetry.Count {
	return trackSend(a.api, payload, a.logger)
}

// Processed returns the adapter's processed set.
func (a *Adapter) Processed() *ProcessedSet {
	return a.processed
}

// Wait blocks until every refresh started so far has finished.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

func (a *Adapter) startRefresh() {
	if a.refresh == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx := context.Background()
		if a.refreshTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, a.refreshTimeout)
			defer cancel()
		}
		runRefresh(ctx, a.refresh, a.logger)
	}()
}
