// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties one interactive session's usage store to the events
// that feed it.
//
// A Session owns the telemetry store and the instrumentation adapter, knows
// the active model's context window and, when configured, the saved memory
// database. User interfaces call Send, Remember and Compress and render
// Stats; everything that reaches the store goes through the adapter.
//
// # Usage
//
//	sess := session.New(session.Options{
//	    Model:  cfg.Model,
//	    Memory: memStore,
//	})
//	defer sess.Close()
//
//	sess.Send("explain this stack trace")
//	stats := sess.Stats()
package session
