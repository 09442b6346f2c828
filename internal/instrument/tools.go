// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// =============================================================================
// TOOL CALLS
// =============================================================================

const (
	// SaveMemoryTool is the tool whose results carry memory token counts.
	SaveMemoryTool = "save_memory"

	// StatusSuccess is the status of a tool call that completed normally.
	StatusSuccess = "success"
)

// ToolCall is a completed background tool invocation.
type ToolCall struct {
	Name     string `json:"name"`
	CallID   string `json:"callId"`
	Status   string `json:"status"`
	Response any    `json:"response,omitempty"`
}

// RefreshFunc reloads memory so consumers can re-query storage.
type RefreshFunc func(ctx context.Context) error

// =============================================================================
// PROCESSED SET
// =============================================================================

// ProcessedSet remembers which call IDs have already been examined so a
// repeated delivery of the same completed calls is not processed twice.
type ProcessedSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewProcessedSet creates an empty set.
func NewProcessedSet() *ProcessedSet {
	return &ProcessedSet{ids: make(map[string]struct{})}
}

// Has reports whether id has been processed.
func (s *ProcessedSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Add marks id as processed and reports whether it was new.
func (s *ProcessedSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len returns the number of processed IDs.
func (s *ProcessedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// =============================================================================
// COMPLETED TOOLS
// =============================================================================

// HandleCompletedTools records usage reported by newly completed, successful
// save_memory calls.
//
// When at least one such call is new, refresh is started in its own
// goroutine and not waited for. Each new call's result is searched for a
// memory token count and an overall token count; whatever is found is applied
// to api as one patch per call. Every examined call is added to processed.
// Nothing here panics into the caller.
func HandleCompletedTools(calls []ToolCall, api telemetry.API, refresh RefreshFunc, processed *ProcessedSet) {
	handleCompletedTools(calls, api, processed, slog.Default(), func() {
		go runRefresh(context.Background(), refresh, slog.Default())
	})
}

func handleCompletedTools(calls []ToolCall, api telemetry.API, processed *ProcessedSet, logger *slog.Logger, startRefresh func()) {
	if len(calls) == 0 || processed == nil {
		return
	}

	fresh := make([]ToolCall, 0, len(calls))
	for _, call := range calls {
		if call.Name == SaveMemoryTool && call.Status == StatusSuccess && !processed.Has(call.CallID) {
			fresh = append(fresh, call)
		}
	}
	if len(fresh) == 0 {
		return
	}

	startRefresh()

	for _, call := range fresh {
		recordCall(call, api, logger)
		processed.Add(call.CallID)
	}
}

func recordCall(call ToolCall, api telemetry.API, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("save_memory instrumentation failed", "call_id", call.CallID, "panic", r)
		}
	}()

	found := extractUsage(call.Response)
	patch := found.patch()
	if patch.Empty() || api == nil {
		return
	}

	api.Update(patch)
	logger.Debug("save_memory usage recorded",
		"call_id", call.CallID,
		"fields", patch.Fields(),
		"source", found.source,
	)
}

func runRefresh(ctx context.Context, refresh RefreshFunc, logger *slog.Logger) {
	if refresh == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("memory refresh panicked", "panic", r)
		}
	}()
	if err := refresh(ctx); err != nil {
		logger.Warn("memory refresh failed", "error", err)
	}
}
