// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"runtime"

	"github.com/jeranaias/tokenmeter/internal/format"
)

// HeapBytes returns the bytes of allocated heap objects.
func HeapBytes() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}

// MemoryUsageText renders a heap size for the footer, e.g. "mem 12.4 MB".
func MemoryUsageText(bytes uint64) string {
	return "mem " + format.MemoryUsage(float64(bytes))
}
