// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format renders token counts, durations and byte sizes for display.
//
// Every function is pure and safe for concurrent use. The same value always
// renders the same string, so the footer and the screen-reader output never
// disagree about a number.
//
// # Token counts
//
//	format.TokenCount(12345, true)  // "12.3k"
//	format.TokenCount(12345, false) // "12,345"
//	format.TokenCount(999, true)    // "999"
//
// # Durations
//
//	format.Duration(500)     // "500ms"
//	format.Duration(5000)    // "5.0s"
//	format.Duration(3723000) // "1h 2m 3s"
//
// # Memory
//
//	format.MemoryUsage(2 * 1024 * 1024) // "2.0 MB"
//
// Decimal output rounds half away from zero on the exact binary value, so
// 1250 tokens render as "1.3k" rather than the banker's "1.2k".
package format
