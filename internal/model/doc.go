// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains model metadata and outbound message types.
//
// # Key Types
//
//   - ModelInfo: context window size and display name of a model
//   - Registry: built-in models plus user overrides from config
//   - Message: an outbound prompt made of parts
//   - Part: one piece of a message, readable by the token estimator
//
// # Usage
//
// Look up the context window used by the footer:
//
//	limit := model.TokenLimit("gemini-2.5-pro") // 1048576
//
// With user-configured extras:
//
//	reg := model.NewRegistry(cfg.Models)
//	limit := reg.TokenLimit(cfg.Model)
package model
