// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// =============================================================================
// TOKEN LIMIT TESTS
// =============================================================================

func TestTokenLimit(t *testing.T) {
	tests := []struct {
		model string
		want  int64
	}{
		{"gemini-2.5-pro", 1_048_576},
		{"gemini-1.5-pro", 2_097_152},
		{"GEMINI-1.5-PRO", 2_097_152},
		{"gemini-1.5-pro-002", 2_097_152},
		{"gemini-2.0-flash-preview-image-generation", 32_000},
		{"gemini-2.0-flash-001", 1_048_576},
		{"gpt-4o", 128_000},
		{"unknown-model", DefaultTokenLimit},
		{"", DefaultTokenLimit},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenLimit(tt.model))
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(map[string]int64{
		"Local-Llama": 8192,
		"gpt-4o":      64_000,
		"ignored":     0,
	})

	assert.Equal(t, int64(8192), reg.TokenLimit("local-llama"))
	assert.Equal(t, int64(64_000), reg.TokenLimit("gpt-4o"))
	assert.Equal(t, DefaultTokenLimit, reg.TokenLimit("ignored"))
	assert.Equal(t, int64(1_048_576), reg.TokenLimit("gemini-2.5-flash"))

	info, ok := reg.Get("gpt-4o")
	assert.True(t, ok)
	assert.Equal(t, "OpenAI", info.Provider)

	// Built-ins are untouched by registry overrides.
	assert.Equal(t, int64(128_000), TokenLimit("gpt-4o"))

	list := reg.List()
	assert.Len(t, list, len(Models)+1)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
}

func TestModelInfo_ContextString(t *testing.T) {
	assert.Equal(t, "1.0M tokens", ModelInfo{TokenLimit: 1_048_576}.ContextString())
	assert.Equal(t, "128K tokens", ModelInfo{TokenLimit: 128_000}.ContextString())
	assert.Equal(t, "512 tokens", ModelInfo{TokenLimit: 512}.ContextString())
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessage_Estimate(t *testing.T) {
	msg := Message{Role: RoleUser, Parts: []Part{
		TextPart("abcd"),
		{MIMEType: "image/png", Data: []byte{1, 2, 3}},
		TextPart("efgh"),
	}}

	assert.Equal(t, "abcdefgh", msg.Text())
	assert.True(t, telemetry.Known(2).Equal(telemetry.EstimateTokenCount(msg.Parts)))
}

func TestMessage_BinaryOnlyIsUnknown(t *testing.T) {
	parts := []Part{{MIMEType: "image/png", Data: []byte{1}}}
	assert.False(t, telemetry.EstimateTokenCount(parts).IsKnown())
}

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("hello")
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Text())
	assert.False(t, msg.Timestamp.IsZero())
}
