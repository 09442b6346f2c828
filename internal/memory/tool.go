// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"context"
	"fmt"

	"github.com/jeranaias/tokenmeter/internal/instrument"
)

// Remember saves content and reports it as a completed save_memory call
// whose response carries the new memory footprint. A failed save is
// reported with an error status so instrumentation skips it.
func (s *Store) Remember(ctx context.Context, callID, content string) (instrument.ToolCall, error) {
	call := instrument.ToolCall{
		Name:   instrument.SaveMemoryTool,
		CallID: callID,
		Status: "error",
	}

	mem, err := s.Save(ctx, content)
	if err != nil {
		call.Response = map[string]any{"error": err.Error()}
		return call, err
	}

	footprint, err := s.Footprint(ctx)
	if err != nil {
		call.Response = map[string]any{"error": err.Error()}
		return call, err
	}

	total, _ := footprint.Value()
	call.Status = instrument.StatusSuccess
	call.Response = map[string]any{
		"memory_token_count": total,
		"resultDisplay":      fmt.Sprintf("Saved memory %s (%d tokens)", mem.ID[:8], mem.Tokens),
	}
	return call, nil
}
