// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the tokenmeter TUI.
//
// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.
// Status helpers pair every color with an ASCII shape so meaning survives
// monochrome terminals and color blindness.
//
// # Key Types
//
//   - Theme: the styles used by the chat view, footer and stats panel
//   - StatusIndicatorSet: ASCII shapes for success, error, warning and info
//
// # Usage
//
//	theme := styles.NewTheme()
//	footer := theme.Footer.Render(text)
//
//	// Color the context segment by how much room is left
//	style := theme.ContextStyle(percentLeft)
package styles
