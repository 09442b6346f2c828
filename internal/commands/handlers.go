// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/tokenmeter/internal/format"
	"github.com/jeranaias/tokenmeter/internal/model"
	"github.com/jeranaias/tokenmeter/internal/session"
	"github.com/jeranaias/tokenmeter/internal/ui/components"
	"github.com/jeranaias/tokenmeter/internal/util"
)

// memoryPreviewWidth caps memory content in /memories.
const memoryPreviewWidth = 60

func handleHelp(ctx *Context, _ []string, _ string) (Result, error) {
	var b strings.Builder
	b.WriteString("# Commands\n\n")
	b.WriteString("| Command | Description |\n|---|---|\n")
	if ctx.Registry != nil {
		for _, cmd := range ctx.Registry.All() {
			if cmd.Hidden {
				continue
			}
			usage := "`" + cmd.Usage + "`"
			if len(cmd.Aliases) > 0 {
				usage += " (" + strings.Join(cmd.Aliases, ", ") + ")"
			}
			b.WriteString("| " + usage + " | " + cmd.Description + " |\n")
		}
	}
	b.WriteString("\nAnything else is sent as a prompt and counted against the context window.\n")
	return Result{Text: b.String(), Markdown: true}, nil
}

func handleQuit(_ *Context, _ []string, _ string) (Result, error) {
	return Result{Quit: true}, nil
}

func handleCounts(_ *Context, _ []string, _ string) (Result, error) {
	return Result{ToggleTokenCounts: true}, nil
}

func handleRemember(ctx *Context, _ []string, rawArgs string) (Result, error) {
	if err := ctx.Session.Remember(ctx.context(), rawArgs); err != nil {
		return Result{}, fmt.Errorf("remember: %w", err)
	}
	return Result{Text: "Saved to memory."}, nil
}

func handleMemories(ctx *Context, _ []string, _ string) (Result, error) {
	all, err := ctx.Session.Memories(ctx.context())
	if err != nil {
		return Result{}, fmt.Errorf("memories: %w", err)
	}
	if len(all) == 0 {
		return Result{Text: "No saved memories."}, nil
	}

	var b strings.Builder
	for _, m := range all {
		fmt.Fprintf(&b, "%s  %s tokens  %s\n",
			m.ID[:min(8, len(m.ID))],
			util.PadRight(format.TokenCountShort(float64(m.Tokens)), 5),
			util.TruncateWidth(strings.ReplaceAll(m.Content, "\n", " "), memoryPreviewWidth))
	}
	return Result{Text: strings.TrimSuffix(b.String(), "\n")}, nil
}

func handleForget(ctx *Context, args []string, _ string) (Result, error) {
	m, err := ctx.Session.Forget(ctx.context(), args[0])
	if err != nil {
		return Result{}, fmt.Errorf("forget: %w", err)
	}
	return Result{Text: "Forgot " + util.TruncateWidth(m.Content, memoryPreviewWidth)}, nil
}

func handleCompress(ctx *Context, _ []string, _ string) (Result, error) {
	ev, err := ctx.Session.Compress()
	if errors.Is(err, session.ErrNothingToCompress) {
		return Result{Text: "Nothing to compress yet."}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("compress: %w", err)
	}
	return Result{Text: fmt.Sprintf("Compressed history from %s to %s tokens.",
		format.TokenCount(float64(ev.OriginalTokenCount), false),
		format.TokenCount(float64(ev.NewTokenCount), false))}, nil
}

func handleStats(ctx *Context, _ []string, _ string) (Result, error) {
	st := ctx.Session.Stats()
	panel := &components.ContextStats{
		SessionID: st.ID,
		Model:     st.Model,
		Started:   st.Started,
		Duration:  st.Duration,
		Prompts:   st.Prompts,
		Memories:  st.Memories,
		Usage:     st.Usage,
	}
	if ctx.Config != nil {
		panel.FullCounts = ctx.Config.UI.Footer.ShowTokenCounts
	}
	return Result{Stats: panel}, nil
}

func handleModel(ctx *Context, args []string, _ string) (Result, error) {
	if len(args) == 0 {
		id := ctx.Session.Model()
		if info, ok := ctx.Session.Registry().Get(id); ok {
			return Result{Text: fmt.Sprintf("Model: %s (%s, %s)", id, info.Name, info.ContextString())}, nil
		}
		return Result{Text: "Model: " + id + " (unknown, default window)"}, nil
	}
	ctx.Session.SetModel(args[0])
	if ctx.Config != nil {
		ctx.Config.Model = args[0]
	}
	limit, _ := ctx.Session.Usage().Get().ModelContextLimit.Value()
	return Result{Text: fmt.Sprintf("Switched to %s (%s token window).",
		args[0], format.TokenCount(float64(limit), true))}, nil
}

func handleModels(ctx *Context, _ []string, _ string) (Result, error) {
	return Result{Text: ModelTable(ctx.Session.Registry().List(), ctx.Session.Model())}, nil
}

// ModelTable renders models one per line, marking current with "*".
func ModelTable(models []model.ModelInfo, current string) string {
	width := 0
	for _, m := range models {
		width = max(width, util.StringWidth(m.ID))
	}
	var b strings.Builder
	for _, m := range models {
		mark := " "
		if strings.EqualFold(m.ID, current) {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s  %-12s %s\n", mark, util.PadRight(m.ID, width), m.ContextString(), m.Provider)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func handleReset(ctx *Context, _ []string, _ string) (Result, error) {
	ctx.Session.Reset()
	return Result{Text: "Usage counters reset."}, nil
}
