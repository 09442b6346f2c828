// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/tokenmeter/internal/format"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
)

// =============================================================================
// CONTEXT USAGE SEGMENT
// =============================================================================

// ContextUsage describes the footer's context window segment.
type ContextUsage struct {
	// Used is the prompt size measured against the window. Unknown counts as 0.
	Used telemetry.Count

	// Limit is the model's context window in tokens.
	Limit int64

	// ShowTokenCounts switches from "% context left" to explicit counts.
	ShowTokenCounts bool

	// ScreenReader appends full integers after the abbreviated counts.
	ScreenReader bool

	// Width is the terminal width; narrow terminals get abbreviated counts.
	Width int
}

// ContextUsageFor builds the segment for a usage snapshot. limit is used
// when the snapshot has no context window of its own.
func ContextUsageFor(snap telemetry.Snapshot, limit int64) ContextUsage {
	if l, ok := snap.ModelContextLimit.Value(); ok && l > 0 {
		limit = l
	}
	return ContextUsage{Used: snap.PromptTokenCount(), Limit: limit}
}

// PercentLeft returns the share of the window still free, in percent. It
// goes negative when the prompt exceeds the window.
func (c ContextUsage) PercentLeft() float64 {
	if c.Limit <= 0 {
		return 100
	}
	used := float64(c.Used.Or(0))
	return (1 - used/float64(c.Limit)) * 100
}

// Text renders the segment without styling:
//
//	(97% context left)
//	(12,345 / 1,048,576)
//
// Narrow widths use the short counts, and screen reader mode appends the
// full integers after a dash.
func (c ContextUsage) Text() string {
	if !c.ShowTokenCounts {
		return "(" + format.Fixed(c.PercentLeft(), 0) + "% context left)"
	}

	used := float64(c.Used.Or(0))
	limit := float64(c.Limit)
	short := styles.IsNarrow(c.Width)

	text := "(" + format.TokenCount(used, short) + " / " + format.TokenCount(limit, short)
	if c.ScreenReader {
		text += " — " + format.TokenCount(used, false) + " out of " + format.TokenCount(limit, false)
	}
	return text + ")"
}

// View renders the segment colored by how much room is left.
func (c ContextUsage) View(theme *styles.Theme) string {
	if theme == nil {
		return c.Text()
	}
	return theme.ContextStyle(c.PercentLeft()).Render(c.Text())
}
