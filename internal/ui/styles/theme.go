// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Context left thresholds for footer coloring, in percent.
const (
	ContextWarnPercent     = 30
	ContextCriticalPercent = 10
)

// NarrowWidth is the terminal width below which layouts go compact.
const NarrowWidth = 80

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// CHAT
	// ==========================================================================

	Title       lipgloss.Style
	Prompt      lipgloss.Style
	UserLine    lipgloss.Style
	SystemLine  lipgloss.Style
	Placeholder lipgloss.Style

	// ==========================================================================
	// FOOTER
	// ==========================================================================

	Footer          lipgloss.Style
	FooterModel     lipgloss.Style
	FooterSep       lipgloss.Style
	ContextOK       lipgloss.Style
	ContextWarn     lipgloss.Style
	ContextDanger   lipgloss.Style
	MemoryIndicator lipgloss.Style

	// ==========================================================================
	// STATS PANEL
	// ==========================================================================

	StatsBox   lipgloss.Style
	StatsTitle lipgloss.Style
	StatsLabel lipgloss.Style
	StatsValue lipgloss.Style
	StatsMuted lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	return NewThemeFor(termenv.ColorProfile(), termenv.HasDarkBackground())
}

// NewThemeFor creates a theme for an explicit color profile. termenv.Ascii
// yields a theme without colors.
func NewThemeFor(profile termenv.Profile, isDark bool) *Theme {
	t := &Theme{IsDark: isDark, ColorProfile: profile}
	t.initStyles()
	if profile == termenv.Ascii {
		t.stripColors()
	}
	return t
}

func (t *Theme) initStyles() {
	t.Title = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.Prompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.UserLine = lipgloss.NewStyle().Foreground(TextPrimary)
	t.SystemLine = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)
	t.Placeholder = lipgloss.NewStyle().Foreground(TextMuted)

	t.Footer = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim)
	t.FooterModel = lipgloss.NewStyle().Foreground(Cyan)
	t.FooterSep = lipgloss.NewStyle().Foreground(TextMuted)
	t.ContextOK = lipgloss.NewStyle().Foreground(TextSecondary)
	t.ContextWarn = lipgloss.NewStyle().Foreground(Amber)
	t.ContextDanger = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.MemoryIndicator = lipgloss.NewStyle().Foreground(TextMuted)

	t.StatsBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.StatsTitle = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.StatsLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StatsValue = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.StatsMuted = lipgloss.NewStyle().Foreground(TextMuted)
}

// stripColors keeps layout (borders, padding) but drops every color.
func (t *Theme) stripColors() {
	for _, s := range []*lipgloss.Style{
		&t.Title, &t.Prompt, &t.UserLine, &t.SystemLine, &t.Placeholder,
		&t.Footer, &t.FooterModel, &t.FooterSep,
		&t.ContextOK, &t.ContextWarn, &t.ContextDanger, &t.MemoryIndicator,
		&t.StatsBox, &t.StatsTitle, &t.StatsLabel, &t.StatsValue, &t.StatsMuted,
	} {
		*s = s.UnsetForeground().UnsetBackground().UnsetBorderForeground()
	}
}

// ContextStyle picks the footer style for the given percentage of context
// left.
func (t *Theme) ContextStyle(percentLeft float64) lipgloss.Style {
	switch {
	case percentLeft <= ContextCriticalPercent:
		return t.ContextDanger
	case percentLeft <= ContextWarnPercent:
		return t.ContextWarn
	default:
		return t.ContextOK
	}
}

// IsNarrow reports whether width calls for the compact layout.
func IsNarrow(width int) bool {
	return width < NarrowWidth
}
