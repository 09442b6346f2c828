// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry tracks token usage for an interactive session.
//
// The package holds the canonical usage Snapshot in an observable Store and
// provides the heuristics that feed it from the message-send path.
//
// # Key Types
//
//   - Store: observable holder of the current Snapshot (Get/Subscribe/Update)
//   - Snapshot: immutable usage values, replaced wholesale on every update
//   - Patch: partial update built by chaining setters
//   - Count: a non-negative token count or Unknown
//
// # Usage
//
// Create one store per session and pass it to whatever needs it:
//
//	store := telemetry.NewStore(telemetry.WithLogger(logger))
//	unsubscribe := store.Subscribe(func(s telemetry.Snapshot) {
//	    fmt.Println("high-water mark:", s.HighWaterMark)
//	})
//	defer unsubscribe()
//
// Record an outbound message:
//
//	estimate := telemetry.EstimateTokenCount(prompt)
//	telemetry.UpdateHighWaterMark(store, estimate)
//
// # Guarantees
//
// The high-water mark never decreases for the lifetime of a store, whatever
// sequence of updates is applied. Readers never observe a partially applied
// update. Nothing in this package returns errors or panics into the caller:
// telemetry that cannot be computed is Unknown or simply not updated.
package telemetry
