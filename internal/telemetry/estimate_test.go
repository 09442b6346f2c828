// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type genaiPart struct {
	Text        string
	InlineData  []byte
	FunctionRef *string
}

type textValuePart struct {
	Text  string
	Value string
}

type labelledPart struct{ label string }

func (p labelledPart) PartText() (string, bool) { return p.label, p.label != "" }

func TestEstimateTokenCount_Strings(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Count
	}{
		{"short word", "Hello", Known(2)},
		{"empty", "", Known(0)},
		{"whitespace only", "   ", Known(0)},
		{"single char", "a", Known(1)},
		{"exact multiple", "abcdefgh", Known(2)},
		{"trimmed before counting", "  abcd  ", Known(1)},
		{"counts runes not bytes", "héllo wörld", Known(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokenCount(tt.payload))
		})
	}
}

func TestEstimateTokenCount_Parts(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    Count
	}{
		{
			name:    "map part with text",
			payload: []any{map[string]any{"text": "This is a test"}},
			want:    Known(4),
		},
		{
			name:    "typed map slice",
			payload: []map[string]any{{"text": "This is"}, {"content": " a test"}},
			want:    Known(4),
		},
		{
			name:    "no text-like fields",
			payload: []any{map[string]any{"foo": "bar"}},
			want:    Unknown,
		},
		{
			name:    "empty parts list",
			payload: []any{},
			want:    Unknown,
		},
		{
			name:    "higher priority non-string wins",
			payload: []any{map[string]any{"text": 12, "content": "ignored"}},
			want:    Unknown,
		},
		{
			name:    "nil field falls through",
			payload: []any{map[string]any{"text": nil, "value": "abcd"}},
			want:    Known(1),
		},
		{
			name:    "empty map text decides",
			payload: []map[string]any{{"text": "", "value": "abcdefgh"}},
			want:    Unknown,
		},
		{
			name:    "empty struct text decides",
			payload: []textValuePart{{Text: "", Value: "abcdefgh"}},
			want:    Unknown,
		},
		{
			name:    "struct text wins over value",
			payload: []textValuePart{{Text: "abcd", Value: "abcdefgh"}},
			want:    Known(1),
		},
		{
			name:    "struct parts",
			payload: []genaiPart{{Text: "This is a test"}, {InlineData: []byte{1, 2}}},
			want:    Known(4),
		},
		{
			name:    "pointer struct parts",
			payload: []*genaiPart{{Text: "abcd"}, nil},
			want:    Known(1),
		},
		{
			name:    "text part interface",
			payload: []TextPart{labelledPart{"hello"}, labelledPart{}},
			want:    Known(2),
		},
		{
			name:    "string parts are not recognised",
			payload: []string{"hello"},
			want:    Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateTokenCount(tt.payload))
		})
	}
}

func TestEstimateTokenCount_OtherShapes(t *testing.T) {
	assert.Equal(t, Unknown, EstimateTokenCount(nil))
	assert.Equal(t, Unknown, EstimateTokenCount(42))
	assert.Equal(t, Unknown, EstimateTokenCount(map[string]any{"text": "hello"}))
	assert.Equal(t, Unknown, EstimateTokenCount(struct{}{}))
}
