// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for tokenmeter.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and hot reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - UIConfig: Footer, accessibility and panel toggles
//   - MemoryConfig: Saved memory database and refresh throttling
//   - Watcher: Reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TOKENMETER_*)
//   - ~/.tokenmeter/config.toml
//   - ~/.tokenmeter/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//
// Access settings:
//
//	show := cfg.UI.Footer.ShowTokenCounts
//	every := cfg.Memory.RefreshInterval()
package config
