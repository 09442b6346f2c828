// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package format renders token counts, durations and byte sizes for display.
package format

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// shortUnits are tried largest first; the first unit not exceeding the
// magnitude wins.
var shortUnits = []struct {
	value  float64
	suffix string
}{
	{1_000_000_000, "B"},
	{1_000_000, "M"},
	{1_000, "k"},
}

// grouping renders integers with English thousands separators.
var grouping = message.NewPrinter(language.English)

// =============================================================================
// TOKEN COUNTS
// =============================================================================

// TokenCount formats a token count either as shorthand ("12.3k") or as a
// grouped integer ("12,345").
//
// Non-finite input is treated as 0 and the value is rounded to the nearest
// integer first. Anything that rounds to zero or below renders as "0".
func TokenCount(tokens float64, short bool) string {
	n := roundHalfUp(finiteOrZero(tokens))
	if n <= 0 {
		return "0"
	}

	if !short {
		return Grouped(n)
	}

	if n < 1000 {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}

	for _, unit := range shortUnits {
		if n < unit.value {
			continue
		}
		v := n / unit.value
		if math.Abs(v) < 100 {
			return fixed(v, 1) + unit.suffix
		}
		return fixed(v, 0) + unit.suffix
	}

	return strconv.FormatFloat(n, 'f', 0, 64)
}

// TokenCountShort is TokenCount with shorthand enabled.
func TokenCountShort(tokens float64) string {
	return TokenCount(tokens, true)
}

// Grouped renders an integral value with thousands separators.
func Grouped(n float64) string {
	if n >= math.MaxInt64 {
		return grouping.Sprintf("%d", int64(math.MaxInt64))
	}
	return grouping.Sprintf("%d", int64(n))
}

// =============================================================================
// DURATIONS
// =============================================================================

// Duration formats a millisecond duration concisely, e.g. "500ms", "5.0s"
// or "1h 5s". Units that are zero are omitted.
func Duration(milliseconds float64) string {
	if math.IsNaN(milliseconds) || math.IsInf(milliseconds, 0) || milliseconds <= 0 {
		return "0s"
	}

	if milliseconds < 1000 {
		return strconv.FormatFloat(roundHalfUp(milliseconds), 'f', 0, 64) + "ms"
	}

	totalSeconds := milliseconds / 1000
	if totalSeconds < 60 {
		return fixed(totalSeconds, 1) + "s"
	}

	hours := math.Floor(totalSeconds / 3600)
	minutes := math.Floor(math.Mod(totalSeconds, 3600) / 60)
	seconds := math.Floor(math.Mod(totalSeconds, 60))

	parts := make([]string, 0, 3)
	if hours > 0 {
		parts = append(parts, unitString(hours, "h"))
	}
	if minutes > 0 {
		parts = append(parts, unitString(minutes, "m"))
	}
	if seconds > 0 {
		parts = append(parts, unitString(seconds, "s"))
	}

	if len(parts) == 0 {
		switch {
		case hours > 0:
			return unitString(hours, "h")
		case minutes > 0:
			return unitString(minutes, "m")
		default:
			return unitString(seconds, "s")
		}
	}

	return strings.Join(parts, " ")
}

// DurationOf is Duration for a time.Duration-compatible nanosecond count.
func DurationOf(nanoseconds int64) string {
	return Duration(float64(nanoseconds) / 1e6)
}

func unitString(v float64, suffix string) string {
	return strconv.FormatFloat(v, 'f', 0, 64) + suffix
}

// =============================================================================
// MEMORY
// =============================================================================

// MemoryUsage formats a byte count using 1024-based units: one decimal for
// KB and MB, two for GB.
func MemoryUsage(bytes float64) string {
	bytes = finiteOrZero(bytes)
	switch {
	case bytes < mib:
		return fixed(bytes/kib, 1) + " KB"
	case bytes < gib:
		return fixed(bytes/mib, 1) + " MB"
	default:
		return fixed(bytes/gib, 2) + " GB"
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// roundHalfUp rounds to the nearest integer, ties toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Fixed renders v with the given number of decimals, rounding halves away
// from zero on the exact binary value. Negative zero renders without a sign.
func Fixed(v float64, digits int) string {
	return fixed(v, max(digits, 0))
}

// fixed renders v with exactly digits decimal places. Rounding is done on the
// exact binary value with ties away from zero.
func fixed(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', digits, 64)
	}

	negative := v < 0
	scale := new(big.Float).SetPrec(256).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil))
	scaled := new(big.Float).SetPrec(256).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, scale)
	scaled.Add(scaled, big.NewFloat(0.5))

	rounded, _ := scaled.Int(nil)
	s := rounded.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}

	if negative && strings.Trim(s, "0.") != "" {
		return "-" + s
	}
	return s
}
