// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders the token usage displays shared by the chat TUI
and the plain CLI.

# Components

ContextUsage (context_usage.go) - The footer's context window segment. By
default it shows the share of the window left, "(97% context left)". With
token counts enabled it shows "(used / limit)", abbreviated on narrow
terminals, and in screen reader mode the full integers follow.

Footer (footer.go) - Model name, context usage and the optional process
memory indicator on one line.

ContextStats (stats.go) - The session stats panel: wall time, prompt count,
high-water mark, compression threshold and memory tokens.

# Plain Rendering

Every component has a Text method that renders without ANSI styling. The
chat model uses View with a styles.Theme; the line REPL and the --plain
flag use Text.
*/
package components
