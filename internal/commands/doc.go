// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash commands shared by the chat TUI and
// the line REPL.
//
// Handlers return a Result instead of writing to a terminal, so each front
// end decides how to render text, markdown help and the stats panel.
//
// # Key Types
//
//   - Registry: Command registry with all built-in commands
//   - Parser: Splits input into a command name and arguments
//   - Context: The session and config a handler acts on
//   - Result: What a handler wants the front end to show or do
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /remember: Save text to memory
//   - /memories, /forget: List and delete saved memories
//   - /compress: Compress the history at the current prompt size
//   - /stats: Show the context stats panel
//   - /model: Show or switch the model
//   - /models: List known models and their context windows
//   - /counts: Toggle token counts in the footer
//   - /reset: Reset usage counters
//   - /quit: Exit
//
// # Usage
//
//	reg := commands.NewRegistry()
//	res, err := reg.Execute(&commands.Context{Session: sess}, "/stats")
//
// Get completions:
//
//	reg.Complete("/me")
//	// Returns ["/memories"]
package commands
