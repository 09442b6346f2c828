// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tokenmeter/internal/commands"
	"github.com/jeranaias/tokenmeter/internal/format"
	"github.com/jeranaias/tokenmeter/internal/ui/components"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UsageMsg:
		m.footer.Model = m.session.Model()
		m.footer.SetUsage(msg.Snapshot)
		if m.showStats {
			m.refreshStats()
			m.layout()
		}
		return m, m.usage.wait()

	case CommandResultMsg:
		return m.handleCommandResult(msg)

	case ConfigChangedMsg:
		return m.handleConfigChanged(msg)

	case heapTickMsg:
		m.footer.HeapBytes = msg.bytes
		if m.cfg.UI.ShowMemoryUsage {
			return m, m.heapTick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
	m.markdown = newMarkdownRenderer(m.theme, msg.Width)
	m.layout()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Complete):
		if matches := m.registry.Complete(m.input.Value()); len(matches) == 1 {
			m.input.SetValue(matches[0] + " ")
			m.input.CursorEnd()
		}
		return m, nil

	case key.Matches(msg, m.keys.Stats):
		m.showStats = !m.showStats
		if m.showStats {
			m.refreshStats()
		}
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCounts):
		m.toggleTokenCounts()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input line as a prompt or runs it as a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" {
		return m, nil
	}
	m.appendLine(m.theme.UserLine.Render("> " + text))

	if commands.IsCommand(text) {
		ctx := &commands.Context{
			Ctx:     context.Background(),
			Session: m.session,
			Config:  m.cfg.Clone(),
		}
		registry := m.registry
		return m, func() tea.Msg {
			res, err := registry.Execute(ctx, text)
			return CommandResultMsg{Input: text, Result: res, Err: err}
		}
	}

	estimate, err := m.session.Send(text)
	if err != nil {
		m.appendLine(styles.RenderError(err.Error()))
		return m, nil
	}
	m.appendSystem("~" + format.TokenCount(float64(estimate.Or(0)), false) + " tokens")

	usage := components.ContextUsageFor(m.session.Usage().Get(), m.session.Registry().TokenLimit(m.session.Model()))
	if left := usage.PercentLeft(); left <= styles.ContextWarnPercent {
		m.appendLine(styles.RenderWarning(format.Fixed(left, 0) + "% of the context window left; /compress to make room"))
	}
	return m, nil
}

func (m Model) handleCommandResult(msg CommandResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendLine(styles.RenderError(msg.Err.Error()))
		return m, nil
	}

	res := msg.Result
	if res.Quit {
		return m, tea.Quit
	}
	if res.ToggleTokenCounts {
		m.toggleTokenCounts()
	}
	if res.Stats != nil {
		m.stats = res.Stats
		m.stats.FullCounts = m.cfg.UI.Footer.ShowTokenCounts
		m.showStats = true
		m.layout()
	}
	if res.Text != "" {
		text := res.Text
		if res.Markdown && m.markdown != nil {
			if rendered, err := m.markdown.Render(text); err == nil {
				text = strings.Trim(rendered, "\n")
			}
		}
		for _, line := range strings.Split(text, "\n") {
			m.appendSystem(line)
		}
	}
	m.footer.Model = m.session.Model()
	return m, nil
}

func (m Model) handleConfigChanged(msg ConfigChangedMsg) (tea.Model, tea.Cmd) {
	if msg.Config == nil {
		return m, nil
	}
	cfg := msg.Config.Clone()
	m.session.SetModelLimits(cfg.Models)
	if cfg.Model != "" && cfg.Model != m.session.Model() {
		m.session.SetModel(cfg.Model)
	}
	heapWasOn := m.cfg.UI.ShowMemoryUsage
	m.applyConfig(cfg)
	m.footer.Model = m.session.Model()
	m.appendLine(styles.RenderSuccess("config reloaded"))

	if cfg.UI.ShowMemoryUsage && !heapWasOn {
		return m, m.heapTick()
	}
	return m, nil
}

func (m *Model) toggleTokenCounts() {
	m.cfg.UI.Footer.ShowTokenCounts = !m.cfg.UI.Footer.ShowTokenCounts
	m.footer.ShowTokenCounts = m.cfg.UI.Footer.ShowTokenCounts
	if m.stats != nil {
		m.stats.FullCounts = m.cfg.UI.Footer.ShowTokenCounts
	}
}

func (m *Model) appendSystem(line string) {
	m.appendLine(m.theme.SystemLine.Render(line))
}

func (m *Model) appendLine(line string) {
	m.transcript = append(m.transcript, line)
	if over := len(m.transcript) - maxTranscriptLines; over > 0 {
		m.transcript = append(m.transcript[:0:0], m.transcript[over:]...)
	}
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}
