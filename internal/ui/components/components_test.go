// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
	"github.com/jeranaias/tokenmeter/internal/util"
)

const geminiLimit = 1_048_576

func TestContextUsage_PercentLeft(t *testing.T) {
	tests := []struct {
		name string
		used telemetry.Count
		want string
	}{
		{"empty", telemetry.Known(0), "(100% context left)"},
		{"unknown counts as zero", telemetry.Unknown, "(100% context left)"},
		{"rounded", telemetry.Known(12345), "(99% context left)"},
		{"half", telemetry.Known(geminiLimit / 2), "(50% context left)"},
		{"over limit", telemetry.Known(2 * geminiLimit), "(-100% context left)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cu := ContextUsage{Used: tt.used, Limit: geminiLimit, Width: 120}
			assert.Equal(t, tt.want, cu.Text())
		})
	}
}

func TestContextUsage_TokenCounts(t *testing.T) {
	cu := ContextUsage{Used: telemetry.Known(12345), Limit: geminiLimit, ShowTokenCounts: true}

	cu.Width = 120
	assert.Equal(t, "(12,345 / 1,048,576)", cu.Text())

	cu.Width = 60
	assert.Equal(t, "(12.3k / 1.0M)", cu.Text())

	cu.ScreenReader = true
	assert.Equal(t, "(12.3k / 1.0M — 12,345 out of 1,048,576)", cu.Text())
}

func TestContextUsageFor(t *testing.T) {
	snap := telemetry.DefaultSnapshot()
	snap.HighWaterMark = telemetry.Known(900)
	cu := ContextUsageFor(snap, 1000)
	assert.Equal(t, int64(1000), cu.Limit)
	assert.Equal(t, telemetry.Known(900), cu.Used)

	snap.LastSuccessfulRequestTokenCount = telemetry.Known(100)
	snap.ModelContextLimit = telemetry.Known(4000)
	cu = ContextUsageFor(snap, 1000)
	assert.Equal(t, int64(4000), cu.Limit)
	assert.Equal(t, telemetry.Known(100), cu.Used)
	assert.InDelta(t, 97.5, cu.PercentLeft(), 1e-9)
}

func TestContextUsage_ZeroLimit(t *testing.T) {
	cu := ContextUsage{Used: telemetry.Known(10)}
	assert.Equal(t, "(100% context left)", cu.Text())
}

func TestFooter_Text(t *testing.T) {
	f := NewFooter(nil)
	f.Model = "gemini-2.5-pro"
	f.SetWidth(120)
	snap := telemetry.DefaultSnapshot()
	snap.HighWaterMark = telemetry.Known(12345)
	f.SetUsage(snap)

	assert.Equal(t, "gemini-2.5-pro | (99% context left)", f.Text())
	assert.Equal(t, f.Text(), f.View())

	f.ShowTokenCounts = true
	assert.Equal(t, "gemini-2.5-pro | (12,345 / 1,048,576)", f.Text())

	f.ShowMemory = true
	f.HeapBytes = 5 * 1024 * 1024
	assert.Equal(t, "gemini-2.5-pro | (12,345 / 1,048,576) | mem 5.0 MB", f.Text())
}

func TestFooter_LimitOverride(t *testing.T) {
	f := NewFooter(nil)
	f.Model = "custom-model"
	f.Limit = 1000
	f.SetWidth(120)
	snap := telemetry.DefaultSnapshot()
	snap.HighWaterMark = telemetry.Known(250)
	f.SetUsage(snap)

	assert.Equal(t, "custom-model | (75% context left)", f.Text())
}

func TestFooter_Truncates(t *testing.T) {
	f := NewFooter(nil)
	f.Model = "gemini-2.5-pro"
	f.SetWidth(20)

	text := f.Text()
	assert.LessOrEqual(t, util.StringWidth(text), 20)
	assert.True(t, strings.HasSuffix(text, util.Ellipsis))

	// Screen readers get the whole line.
	f.ScreenReader = true
	assert.Equal(t, "gemini-2.5-pro | (100% context left)", f.Text())
}

func TestFooter_ViewWithTheme(t *testing.T) {
	theme := styles.NewThemeFor(termenv.Ascii, true)
	f := NewFooter(theme)
	f.Model = "gemini-2.5-pro"
	f.SetWidth(120)

	view := f.View()
	assert.Contains(t, view, "gemini-2.5-pro")
	assert.Contains(t, view, "(100% context left)")
}

func TestMemoryUsageText(t *testing.T) {
	assert.Equal(t, "mem 512.0 KB", MemoryUsageText(512*1024))
	assert.Equal(t, "mem 1.50 GB", MemoryUsageText(3*1024*1024*1024/2))
	assert.Positive(t, HeapBytes())
}

func TestContextStats_Rows(t *testing.T) {
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := telemetry.DefaultSnapshot()
	snap.CurrentInputTokens = 42
	snap.MemoryTokens = 7
	snap.HighWaterMark = telemetry.Known(12345)
	snap.LastSuccessfulRequestTokenCount = telemetry.Known(1500)

	stats := ContextStats{
		SessionID: "abc",
		Model:     "gemini-2.5-pro",
		Started:   started,
		Duration:  65 * time.Second,
		Prompts:   3,
		Memories:  -1,
		Usage:     snap,
		Now:       started.Add(5 * time.Minute),
	}

	rows := map[string]string{}
	for _, r := range stats.Rows() {
		rows[r[0]] = r[1]
	}

	assert.Equal(t, "abc", rows["Session"])
	assert.Equal(t, "1m 5s", rows["Wall time"])
	assert.Equal(t, "5 minutes ago", rows["Started"])
	assert.Equal(t, "3", rows["Prompts"])
	assert.Equal(t, "1.5k", rows["Last prompt tokens"])
	assert.Equal(t, "42", rows["Current input"])
	assert.Equal(t, "7", rows["Memory tokens"])
	assert.Equal(t, "--", rows["Saved memories"])
	assert.Equal(t, "12.3k", rows["High-water mark"])
	assert.Equal(t, "--", rows["Compression at"])
	assert.Equal(t, "--", rows["Context window"])

	stats.FullCounts = true
	stats.Memories = 2
	rows = map[string]string{}
	for _, r := range stats.Rows() {
		rows[r[0]] = r[1]
	}
	assert.Equal(t, "12,345", rows["High-water mark"])
	assert.Equal(t, "2", rows["Saved memories"])
}

func TestContextStats_Text(t *testing.T) {
	stats := ContextStats{SessionID: "abc", Usage: telemetry.DefaultSnapshot(), Now: time.Now()}
	lines := strings.Split(stats.Text(), "\n")
	require.Len(t, lines, len(stats.Rows())+1)
	assert.Equal(t, "Context stats", lines[0])

	// Values line up in one column.
	col := strings.Index(lines[1], "abc")
	require.Positive(t, col)
	assert.Equal(t, "0", strings.TrimSpace(lines[5][col:]))
}

func TestContextStats_View(t *testing.T) {
	theme := styles.NewThemeFor(termenv.Ascii, true)
	stats := ContextStats{SessionID: "abc", Usage: telemetry.DefaultSnapshot(), Now: time.Now()}
	view := stats.View(theme)
	assert.Contains(t, view, "Context stats")
	assert.Contains(t, view, "High-water mark")
}
