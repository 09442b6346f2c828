// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive terminal view for tokenmeter.

The chat package implements a Bubble Tea program around a session: every
line typed is either a slash command or a prompt whose estimated size is
recorded against the model's context window. The footer shows how much of
the window is left and updates live as the usage store changes.

# Key Components

## Model (model.go)

The Model struct holds the transcript viewport, the text input, the footer
and the optional stats panel.

## Usage Bridge (usage.go)

The usage store calls subscribers on its own goroutine. The bridge keeps
only the newest snapshot in a one-slot channel and a tea.Cmd waits on it,
so the program sees every change as a UsageMsg without ever blocking the
store.

## Update Loop (update.go)

Handles keys, command results, usage and config changes and the heap tick
for the memory indicator.

## View Rendering (view.go)

Title, transcript, input line, footer and short help. Markdown output such
as /help is rendered with glamour.

# Usage

	m := chat.New(chat.Options{Session: sess, Config: cfg, Theme: theme})
	p := tea.NewProgram(m, tea.WithAltScreen())
	// Config reloads arrive as messages:
	//   p.Send(chat.ConfigChangedMsg{Config: cfg})
	_, err := p.Run()
	m.Close()
*/
package chat
