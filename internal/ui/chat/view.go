// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"
)

// title is the header text.
const title = "tokenmeter"

// View renders the chat interface.
func (m Model) View() string {
	parts := []string{m.renderTitle(), m.viewport.View()}
	if m.showStats && m.stats != nil {
		parts = append(parts, m.stats.View(m.theme))
	}
	parts = append(parts,
		m.input.View(),
		m.footer.View(),
		m.help.View(m.keys),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderTitle() string {
	id := m.session.ID()
	return m.theme.Title.Render(title) + " " + m.theme.Placeholder.Render(id[:min(8, len(id))])
}

// layout sizes the transcript to the space the other rows leave.
func (m *Model) layout() {
	m.footer.SetWidth(m.width)

	// Title, input, footer and help take one row each.
	used := 4
	if m.showStats && m.stats != nil {
		used += lipgloss.Height(m.stats.View(m.theme))
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-used, 1)
}
