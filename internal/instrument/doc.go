// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package instrument translates external session events into usage updates.
//
// Three paths feed the usage store:
//
//   - completed background tool calls (save_memory results carry token counts)
//   - context-compression notifications
//   - outbound messages on the send path
//
// Every handler here is best effort. Event payloads come from loosely typed
// tool and service responses, so extraction never trusts their shape, never
// panics into the caller and never changes the outcome of the event itself.
//
// # Usage
//
//	adapter := instrument.NewAdapter(store, refresher.Refresh,
//	    instrument.WithLogger(logger))
//	defer adapter.Wait()
//
//	adapter.Send(prompt)
//	adapter.CompletedTools(calls)
//	adapter.Compression(event, time.Now())
package instrument
