// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/tokenmeter/internal/commands"
	"github.com/jeranaias/tokenmeter/internal/config"
	"github.com/jeranaias/tokenmeter/internal/format"
	"github.com/jeranaias/tokenmeter/internal/ui/components"
)

// historyFileName is the REPL history file in the config directory.
const historyFileName = "history"

// lineReader is the part of liner.State the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// runREPL runs the line REPL on the terminal with history and command
// completion.
func runREPL(ctx context.Context, a *app, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	r := newREPL(a, out)
	line.SetCompleter(r.registry.Complete)

	historyPath := ""
	if dir, err := config.ConfigDir(); err == nil {
		historyPath = filepath.Join(dir, historyFileName)
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if historyPath == "" {
			return
		}
		if f, err := os.OpenFile(historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	a.watchConfig(func(cfg *config.Config) {
		a.session.SetModelLimits(cfg.Models)
		if cfg.Model != "" && cfg.Model != a.session.Model() {
			a.session.SetModel(cfg.Model)
		}
	})

	return r.run(ctx, line)
}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	app      *app
	registry *commands.Registry
	out      io.Writer
	width    int
	markdown *glamour.TermRenderer

	// countsToggled flips the configured footer mode.
	countsToggled bool
}

func newREPL(a *app, out io.Writer) *repl {
	width, _ := GetTerminalSize()
	r := &repl{
		app:      a,
		registry: commands.NewRegistry(),
		out:      out,
		width:    width,
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-2, 20))}
	if ColorsEnabled() {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle("ascii"))
	}
	if md, err := glamour.NewTermRenderer(opts...); err == nil {
		r.markdown = md
	}
	return r
}

// run reads lines until /quit, EOF, Ctrl+C or ctx is done.
func (r *repl) run(ctx context.Context, in lineReader) error {
	printLine(r.out, "tokenmeter "+r.app.session.Model()+". Type /help for commands, /quit to exit.")
	printLine(r.out, r.footer())

	for {
		input, err := in.Prompt("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				r.summary()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if ctx.Err() != nil {
			r.summary()
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		in.AppendHistory(input)

		if quit := r.handle(ctx, input); quit {
			r.summary()
			return nil
		}
		printLine(r.out, r.footer())
	}
}

// handle runs one line. It returns true when the user asked to quit.
func (r *repl) handle(ctx context.Context, input string) bool {
	if !commands.IsCommand(input) {
		estimate, err := r.app.session.Send(input)
		if err != nil {
			printLine(r.out, "error: "+err.Error())
			return false
		}
		printLine(r.out, "~"+format.TokenCount(float64(estimate.Or(0)), false)+" tokens")
		return false
	}

	res, err := r.registry.Execute(&commands.Context{
		Ctx:     ctx,
		Session: r.app.session,
		Config:  r.app.Config().Clone(),
	}, input)
	// Let memory refreshes land before the footer is printed.
	r.app.session.Adapter().Wait()
	if err != nil {
		printLine(r.out, "error: "+err.Error())
		return false
	}

	if res.Quit {
		return true
	}
	if res.ToggleTokenCounts {
		r.countsToggled = !r.countsToggled
	}
	if res.Stats != nil {
		res.Stats.FullCounts = true
		printLine(r.out, res.Stats.Text())
	}
	if res.Text != "" {
		text := res.Text
		if res.Markdown && r.markdown != nil {
			if rendered, err := r.markdown.Render(text); err == nil {
				text = strings.Trim(rendered, "\n")
			}
		}
		printLine(r.out, text)
	}
	return false
}

// footer renders the plain footer line.
func (r *repl) footer() string {
	cfg := r.app.Config()
	f := components.NewFooter(nil)
	f.SetWidth(r.width)
	f.Model = r.app.session.Model()
	f.SetUsage(r.app.session.Usage().Get())
	f.ShowTokenCounts = cfg.UI.Footer.ShowTokenCounts != r.countsToggled
	f.ScreenReader = cfg.UI.Accessibility.ScreenReader
	f.ShowMemory = cfg.UI.ShowMemoryUsage
	if f.ShowMemory {
		f.HeapBytes = components.HeapBytes()
	}
	return f.Text()
}

func (r *repl) summary() {
	st := r.app.session.Stats()
	printLine(r.out, fmt.Sprintf("Session %s: %d prompts, high-water mark %s tokens, %s.",
		st.ID[:min(8, len(st.ID))],
		st.Prompts,
		format.TokenCount(float64(st.Usage.HighWaterMark.Or(0)), false),
		format.DurationOf(st.Duration.Nanoseconds())))
}
