// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package memory persists saved memories and keeps the usage store's memory
// token count in step with them.
//
// # Key Types
//
//   - Store: SQLite-backed saved memories (pure Go driver, no cgo)
//   - Refresher: recomputes the memory footprint and patches the usage store,
//     throttled by a token bucket
//
// # Usage
//
//	store, err := memory.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	refresher := memory.NewRefresher(store, usage, time.Second, logger)
//	adapter := instrument.NewAdapter(usage, refresher.Refresh)
//
//	call, err := store.Remember(ctx, "call-1", "prefers tabs")
//	adapter.CompletedTools([]instrument.ToolCall{call})
package memory
