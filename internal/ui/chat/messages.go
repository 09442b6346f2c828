// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/tokenmeter/internal/commands"
	"github.com/jeranaias/tokenmeter/internal/config"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// UsageMsg carries a new usage snapshot.
type UsageMsg struct {
	Snapshot telemetry.Snapshot
}

// ConfigChangedMsg carries a reloaded configuration.
type ConfigChangedMsg struct {
	Config *config.Config
}

// CommandResultMsg is the outcome of a slash command.
type CommandResultMsg struct {
	Input  string
	Result commands.Result
	Err    error
}

// heapTickMsg carries a fresh heap size for the memory indicator.
type heapTickMsg struct {
	bytes uint64
}
