// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// TOKEN COUNT TESTS
// =============================================================================

func TestTokenCount_Short(t *testing.T) {
	tests := []struct {
		name   string
		tokens float64
		want   string
	}{
		{"zero", 0, "0"},
		{"negative", -5, "0"},
		{"small", 42, "42"},
		{"just below thousand", 999, "999"},
		{"exactly thousand", 1000, "1.0k"},
		{"thousands", 12345, "12.3k"},
		{"tie rounds up", 1250, "1.3k"},
		{"hundreds of thousands", 123456, "123k"},
		{"millions", 1_048_576, "1.0M"},
		{"tens of millions", 12_500_000, "12.5M"},
		{"billions", 2_000_000_000, "2.0B"},
		{"fractional input rounds", 999.4, "999"},
		{"fractional input rounds up", 999.5, "1.0k"},
		{"rounds to zero", 0.4, "0"},
		{"NaN", math.NaN(), "0"},
		{"infinity", math.Inf(1), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenCount(tt.tokens, true))
		})
	}
}

func TestTokenCount_Full(t *testing.T) {
	tests := []struct {
		tokens float64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1_048_576, "1,048,576"},
		{-12, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TokenCount(tt.tokens, false), "tokens=%v", tt.tokens)
	}
}

func TestTokenCountShort_MatchesDefault(t *testing.T) {
	assert.Equal(t, TokenCount(54321, true), TokenCountShort(54321))
}

// =============================================================================
// DURATION TESTS
// =============================================================================

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		ms   float64
		want string
	}{
		{"negative", -100, "0s"},
		{"zero", 0, "0s"},
		{"milliseconds", 500, "500ms"},
		{"rounded milliseconds", 12.6, "13ms"},
		{"seconds", 5000, "5.0s"},
		{"fractional seconds", 12345, "12.3s"},
		{"minutes and seconds", 123000, "2m 3s"},
		{"whole minutes", 120000, "2m"},
		{"hours minutes seconds", 3723000, "1h 2m 3s"},
		{"hours and seconds", 3605000, "1h 5s"},
		{"whole hour", 3600000, "1h"},
		{"NaN", math.NaN(), "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.ms))
		})
	}
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, "1h 2m 3s", DurationOf(int64(time.Hour+2*time.Minute+3*time.Second)))
	assert.Equal(t, "250ms", DurationOf(int64(250*time.Millisecond)))
}

// =============================================================================
// MEMORY TESTS
// =============================================================================

func TestMemoryUsage(t *testing.T) {
	tests := []struct {
		bytes float64
		want  string
	}{
		{0, "0.0 KB"},
		{512, "0.5 KB"},
		{1536, "1.5 KB"},
		{1024 * 1024, "1.0 MB"},
		{250 * 1024 * 1024, "250.0 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{3.5 * 1024 * 1024 * 1024, "3.50 GB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MemoryUsage(tt.bytes), "bytes=%v", tt.bytes)
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestFixed(t *testing.T) {
	assert.Equal(t, "0.3", fixed(0.25, 1))
	assert.Equal(t, "1.00", fixed(1.005, 2)) // 1.005 is slightly below the tie in binary
	assert.Equal(t, "100", fixed(99.5, 0))
	assert.Equal(t, "0.05", fixed(0.05, 2))
	assert.Equal(t, "-1.3", fixed(-1.25, 1))
}
