// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jeranaias/tokenmeter/internal/format"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
	"github.com/jeranaias/tokenmeter/internal/util"
)

// unknownValue is shown for counts that have not been reported.
const unknownValue = "--"

// =============================================================================
// CONTEXT STATS PANEL
// =============================================================================

// ContextStats is the session stats panel.
type ContextStats struct {
	SessionID  string
	Model      string
	Started    time.Time
	Duration   time.Duration
	Prompts    int
	Memories   int
	Usage      telemetry.Snapshot
	Now        time.Time
	FullCounts bool
}

// Rows returns the panel's label/value pairs in display order.
func (c ContextStats) Rows() [][2]string {
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	memories := unknownValue
	if c.Memories >= 0 {
		memories = strconv.Itoa(c.Memories)
	}

	return [][2]string{
		{"Session", c.SessionID},
		{"Model", c.Model},
		{"Wall time", format.DurationOf(c.Duration.Nanoseconds())},
		{"Started", humanize.RelTime(c.Started, now, "ago", "from now")},
		{"Prompts", strconv.Itoa(c.Prompts)},
		{"Last prompt tokens", c.count(c.Usage.LastSuccessfulRequestTokenCount)},
		{"Current input", c.count(telemetry.Known(c.Usage.CurrentInputTokens))},
		{"Memory tokens", c.count(telemetry.Known(c.Usage.MemoryTokens))},
		{"Saved memories", memories},
		{"High-water mark", c.count(c.Usage.HighWaterMark)},
		{"Compression at", c.count(c.Usage.CompressionThreshold)},
		{"Context window", c.count(c.Usage.ModelContextLimit)},
	}
}

func (c ContextStats) count(n telemetry.Count) string {
	v, ok := n.Value()
	if !ok {
		return unknownValue
	}
	return format.TokenCount(float64(v), !c.FullCounts)
}

// Text renders the panel as aligned plain lines.
func (c ContextStats) Text() string {
	rows := c.Rows()
	width := 0
	for _, r := range rows {
		width = max(width, util.StringWidth(r[0]))
	}
	var b strings.Builder
	b.WriteString("Context stats\n")
	for _, r := range rows {
		b.WriteString("  " + util.PadRight(r[0], width) + "  " + r[1] + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// View renders the panel in a bordered box.
func (c ContextStats) View(theme *styles.Theme) string {
	if theme == nil {
		return c.Text()
	}
	rows := c.Rows()
	width := 0
	for _, r := range rows {
		width = max(width, util.StringWidth(r[0]))
	}

	lines := []string{theme.StatsTitle.Render("Context stats")}
	for _, r := range rows {
		value := theme.StatsValue.Render(r[1])
		if r[1] == unknownValue {
			value = theme.StatsMuted.Render(r[1])
		}
		lines = append(lines, theme.StatsLabel.Render(util.PadRight(r[0], width))+"  "+value)
	}
	return theme.StatsBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
