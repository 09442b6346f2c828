// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/tokenmeter/internal/model"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
	"github.com/jeranaias/tokenmeter/internal/util"
)

// footerSep separates footer segments.
const footerSep = " | "

// =============================================================================
// FOOTER COMPONENT
// =============================================================================

// Footer is the bottom line: model, context usage and optionally memory.
// Limit overrides the registry's window for Model when positive.
type Footer struct {
	Model           string
	Limit           int64
	Usage           telemetry.Snapshot
	Width           int
	ShowTokenCounts bool
	ScreenReader    bool
	ShowMemory      bool
	HeapBytes       uint64
	theme           *styles.Theme
}

// NewFooter creates a footer. theme may be nil for plain output.
func NewFooter(theme *styles.Theme) *Footer {
	return &Footer{Width: styles.NarrowWidth, theme: theme}
}

// SetWidth updates the footer width.
func (f *Footer) SetWidth(width int) {
	f.Width = width
}

// SetUsage updates the usage snapshot.
func (f *Footer) SetUsage(snap telemetry.Snapshot) {
	f.Usage = snap
}

// contextUsage builds the context segment for the current state.
func (f *Footer) contextUsage() ContextUsage {
	limit := f.Limit
	if limit <= 0 {
		limit = model.TokenLimit(f.Model)
	}
	cu := ContextUsageFor(f.Usage, limit)
	cu.ShowTokenCounts = f.ShowTokenCounts
	cu.ScreenReader = f.ScreenReader
	cu.Width = f.Width
	return cu
}

func (f *Footer) segments() []string {
	var segs []string
	if f.Model != "" {
		segs = append(segs, f.Model)
	}
	segs = append(segs, f.contextUsage().Text())
	if f.ShowMemory {
		segs = append(segs, MemoryUsageText(f.HeapBytes))
	}
	return segs
}

// Text renders the footer without styling, truncated to Width.
func (f *Footer) Text() string {
	line := strings.Join(f.segments(), footerSep)
	if f.Width > 0 && !f.ScreenReader {
		line = util.TruncateWidth(line, f.Width)
	}
	return line
}

// View renders the styled footer.
func (f *Footer) View() string {
	if f.theme == nil {
		return f.Text()
	}
	if f.Width > 0 && util.StringWidth(strings.Join(f.segments(), footerSep)) > f.Width {
		// Too narrow to style segment by segment.
		return f.theme.Footer.Render(f.Text())
	}

	cu := f.contextUsage()
	var parts []string
	if f.Model != "" {
		parts = append(parts, f.theme.FooterModel.Render(f.Model))
	}
	parts = append(parts, cu.View(f.theme))
	if f.ShowMemory {
		parts = append(parts, f.theme.MemoryIndicator.Render(MemoryUsageText(f.HeapBytes)))
	}
	line := strings.Join(parts, f.theme.FooterSep.Render(footerSep))
	if f.Width > 0 {
		return f.theme.Footer.Width(f.Width).Render(line)
	}
	return f.theme.Footer.Render(line)
}
