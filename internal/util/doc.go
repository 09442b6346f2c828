// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by tokenmeter packages.
//
// # Key Functions
//
// Display width:
//   - TruncateWidth: cut a string to a column budget with an ellipsis
//   - StringWidth: terminal column width of a string
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a footer into the terminal
//	line := util.TruncateWidth(footer, width)
//
//	// Write config files atomically
//	err := util.AtomicWriteFile(path, data, 0600)
package util
