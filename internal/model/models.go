// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultTokenLimit is used for models the registry does not know.
const DefaultTokenLimit int64 = 1_048_576

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a model's context window.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Provider identifies who serves the model
	Provider string `json:"provider"`

	// TokenLimit is the context window size in tokens
	TokenLimit int64 `json:"token_limit"`
}

// ContextString returns a formatted context window string.
func (m ModelInfo) ContextString() string {
	if m.TokenLimit >= 1_000_000 {
		return fmt.Sprintf("%.1fM tokens", float64(m.TokenLimit)/1_000_000)
	}
	if m.TokenLimit >= 1000 {
		return fmt.Sprintf("%dK tokens", m.TokenLimit/1000)
	}
	return fmt.Sprintf("%d tokens", m.TokenLimit)
}

// =============================================================================
// BUILT-IN MODELS
// =============================================================================

// Models holds the built-in models keyed by ID.
var Models = map[string]ModelInfo{
	"gemini-1.5-pro": {
		ID: "gemini-1.5-pro", Name: "Gemini 1.5 Pro", Provider: "Google",
		TokenLimit: 2_097_152,
	},
	"gemini-1.5-flash": {
		ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Provider: "Google",
		TokenLimit: 1_048_576,
	},
	"gemini-2.0-flash": {
		ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: "Google",
		TokenLimit: 1_048_576,
	},
	"gemini-2.0-flash-preview-image-generation": {
		ID: "gemini-2.0-flash-preview-image-generation", Name: "Gemini 2.0 Flash Image", Provider: "Google",
		TokenLimit: 32_000,
	},
	"gemini-2.5-pro": {
		ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "Google",
		TokenLimit: 1_048_576,
	},
	"gemini-2.5-flash": {
		ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: "Google",
		TokenLimit: 1_048_576,
	},
	"claude-3-5-sonnet-20241022": {
		ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", Provider: "Anthropic",
		TokenLimit: 200_000,
	},
	"gpt-4o": {
		ID: "gpt-4o", Name: "GPT-4o", Provider: "OpenAI",
		TokenLimit: 128_000,
	},
	"llama3.1": {
		ID: "llama3.1", Name: "Llama 3.1", Provider: "Local",
		TokenLimit: 128_000,
	},
	"qwen2.5-coder": {
		ID: "qwen2.5-coder", Name: "Qwen 2.5 Coder", Provider: "Local",
		TokenLimit: 32_768,
	},
}

// TokenLimit returns the context window of a built-in model, or
// DefaultTokenLimit for unknown IDs.
func TokenLimit(modelID string) int64 {
	if info, ok := GetModelInfo(modelID); ok {
		return info.TokenLimit
	}
	return DefaultTokenLimit
}

// GetModelInfo looks up a built-in model by ID, case-insensitively. A
// versioned ID such as "gemini-2.5-pro-002" matches its base model.
func GetModelInfo(id string) (ModelInfo, bool) {
	return lookup(Models, id)
}

func lookup(models map[string]ModelInfo, id string) (ModelInfo, bool) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		return ModelInfo{}, false
	}
	if info, ok := models[key]; ok {
		return info, true
	}

	// Longest prefix wins so "gemini-2.0-flash-preview-image-generation"
	// is not shadowed by "gemini-2.0-flash".
	var best ModelInfo
	found := false
	for k, info := range models {
		if strings.HasPrefix(key, k+"-") && (!found || len(k) > len(best.ID)) {
			best, found = info, true
		}
	}
	return best, found
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry layers user-configured context limits over the built-in models.
type Registry struct {
	mu     sync.RWMutex
	models map[string]ModelInfo
}

// NewRegistry creates a registry with the built-in models plus extras,
// which map model IDs to context limits. Non-positive limits are ignored.
func NewRegistry(extras map[string]int64) *Registry {
	r := &Registry{models: make(map[string]ModelInfo, len(Models)+len(extras))}
	for k, v := range Models {
		r.models[k] = v
	}
	r.Set(extras)
	return r
}

// Set adds or replaces context limits.
func (r *Registry) Set(extras map[string]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, limit := range extras {
		key := strings.ToLower(strings.TrimSpace(id))
		if key == "" || limit <= 0 {
			continue
		}
		info, ok := r.models[key]
		if !ok {
			info = ModelInfo{ID: key, Name: id, Provider: "Custom"}
		}
		info.TokenLimit = limit
		r.models[key] = info
	}
}

// TokenLimit returns the context window for modelID, or DefaultTokenLimit.
func (r *Registry) TokenLimit(modelID string) int64 {
	if info, ok := r.Get(modelID); ok {
		return info.TokenLimit
	}
	return DefaultTokenLimit
}

// Get looks up a model by ID.
func (r *Registry) Get(modelID string) (ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.models, modelID)
}

// List returns every model sorted by ID.
func (r *Registry) List() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelInfo, 0, len(r.models))
	for _, info := range r.models {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
