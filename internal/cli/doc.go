// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the tokenmeter command line.
//
// Running tokenmeter without a subcommand starts an interactive session:
// the Bubble Tea chat view on a terminal, or the line REPL when --plain is
// given, screen reader mode is configured or stdin/stdout is not a TTY.
//
// # Subcommands
//
//   - format tokens|duration|memory <n>: Run the numeric formatters
//   - estimate [text]: Estimate the token count of text or stdin
//   - config show|path|get|set|keys|env: Inspect and edit the config file
//   - models: List known models and their context windows
//   - version: Print version information
//
// # Global Flags
//
//	--config  Config file (default ~/.tokenmeter/config.toml)
//	--model   Model whose context window is measured
//	--plain   Use the line REPL
//	--debug   Debug logging
package cli
