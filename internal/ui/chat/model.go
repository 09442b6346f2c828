// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/tokenmeter/internal/commands"
	"github.com/jeranaias/tokenmeter/internal/config"
	"github.com/jeranaias/tokenmeter/internal/session"
	"github.com/jeranaias/tokenmeter/internal/ui/components"
	"github.com/jeranaias/tokenmeter/internal/ui/styles"
)

// DefaultHeapInterval is how often the memory indicator samples the heap.
const DefaultHeapInterval = 2 * time.Second

// maxTranscriptLines bounds the scrollback.
const maxTranscriptLines = 2000

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	Session *session.Session

	// Config is copied; later changes arrive as ConfigChangedMsg.
	Config *config.Config

	// Theme may be nil for a colorless theme.
	Theme *styles.Theme

	// Registry defaults to the built-in commands.
	Registry *commands.Registry

	// HeapInterval overrides DefaultHeapInterval.
	HeapInterval time.Duration
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	session  *session.Session
	cfg      *config.Config
	theme    *styles.Theme
	registry *commands.Registry
	keys     KeyMap

	input    textinput.Model
	viewport viewport.Model
	help     help.Model
	footer   *components.Footer
	usage    *usageBridge
	markdown *glamour.TermRenderer

	transcript   []string
	stats        *components.ContextStats
	showStats    bool
	heapInterval time.Duration

	width  int
	height int
}

// New creates the chat model and subscribes it to the session's usage.
// Call Close when the program exits.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.Clone()

	theme := opts.Theme
	if theme == nil {
		theme = styles.NewThemeFor(termenv.Ascii, true)
	}
	registry := opts.Registry
	if registry == nil {
		registry = commands.NewRegistry()
	}
	heapInterval := opts.HeapInterval
	if heapInterval <= 0 {
		heapInterval = DefaultHeapInterval
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.Prompt
	ti.Placeholder = "Type a prompt or /help..."
	ti.PlaceholderStyle = theme.Placeholder
	ti.CharLimit = 0
	ti.Focus()

	vp := viewport.New(styles.NarrowWidth, 20)

	m := Model{
		session:      opts.Session,
		cfg:          cfg,
		theme:        theme,
		registry:     registry,
		keys:         DefaultKeyMap(),
		input:        ti,
		viewport:     vp,
		help:         help.New(),
		footer:       components.NewFooter(theme),
		usage:        newUsageBridge(opts.Session.Usage()),
		showStats:    cfg.UI.ShowContextStats,
		heapInterval: heapInterval,
		width:        styles.NarrowWidth,
		height:       24,
	}
	m.applyConfig(cfg)
	m.appendLine(styles.RenderInfo("Type a prompt to measure it, or /help for commands."))
	m.footer.Model = opts.Session.Model()
	m.footer.SetUsage(opts.Session.Usage().Get())
	m.markdown = newMarkdownRenderer(theme, m.width)
	if m.showStats {
		m.refreshStats()
	}
	m.layout()
	return m
}

// Close stops the usage subscription.
func (m Model) Close() {
	m.usage.close()
}

// Init starts the cursor blink, the usage bridge and the heap sampler.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.usage.wait()}
	if m.cfg.UI.ShowMemoryUsage {
		cmds = append(cmds, m.heapTick())
	}
	return tea.Batch(cmds...)
}

// Transcript returns the rendered transcript lines.
func (m Model) Transcript() []string {
	return m.transcript
}

// Footer returns the footer component.
func (m Model) Footer() *components.Footer {
	return m.footer
}

// ShowingStats reports whether the stats panel is open.
func (m Model) ShowingStats() bool {
	return m.showStats
}

// applyConfig copies display settings into the footer.
func (m *Model) applyConfig(cfg *config.Config) {
	m.cfg = cfg
	m.footer.ShowTokenCounts = cfg.UI.Footer.ShowTokenCounts
	m.footer.ScreenReader = cfg.UI.Accessibility.ScreenReader
	m.footer.ShowMemory = cfg.UI.ShowMemoryUsage
}

func (m *Model) refreshStats() {
	st := m.session.Stats()
	m.stats = &components.ContextStats{
		SessionID:  st.ID,
		Model:      st.Model,
		Started:    st.Started,
		Duration:   st.Duration,
		Prompts:    st.Prompts,
		Memories:   st.Memories,
		Usage:      st.Usage,
		FullCounts: m.cfg.UI.Footer.ShowTokenCounts,
	}
}

func (m Model) heapTick() tea.Cmd {
	return tea.Tick(m.heapInterval, func(time.Time) tea.Msg {
		return heapTickMsg{bytes: components.HeapBytes()}
	})
}

func newMarkdownRenderer(theme *styles.Theme, width int) *glamour.TermRenderer {
	style := "light"
	switch {
	case theme.ColorProfile == termenv.Ascii:
		style = "ascii"
	case theme.IsDark:
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}
