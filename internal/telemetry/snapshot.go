// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable point-in-time view of a session's token usage.
// Stores replace snapshots wholesale; a Snapshot is never mutated after it
// has been published.
type Snapshot struct {
	// CurrentInputTokens is the estimated size of the most recent outbound message.
	CurrentInputTokens int64 `json:"currentInputTokens"`

	// MemoryTokens is the token footprint of saved memory content.
	MemoryTokens int64 `json:"memoryTokens"`

	// ModelContextLimit is the context window of the active model.
	ModelContextLimit Count `json:"modelContextLimit"`

	// CompressionThreshold is the size at which history gets compressed.
	CompressionThreshold Count `json:"compressionThreshold"`

	// HighWaterMark is the largest sent-token count seen this session.
	// It never decreases.
	HighWaterMark Count `json:"highWaterMark"`

	// LastSuccessfulRequestTokenCount is the size of the most recently
	// completed exchange.
	LastSuccessfulRequestTokenCount Count `json:"lastSuccessfulRequestTokenCount"`
}

// DefaultSnapshot returns the state of a freshly created store.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		HighWaterMark: Known(0),
	}
}

// PromptTokenCount is the request size the footer measures against the
// context window: the last completed exchange when known, otherwise the
// high-water mark.
func (s Snapshot) PromptTokenCount() Count {
	if s.LastSuccessfulRequestTokenCount.IsKnown() {
		return s.LastSuccessfulRequestTokenCount
	}
	return s.HighWaterMark
}

// =============================================================================
// PATCH
// =============================================================================

type field uint8

const (
	fieldCurrentInput field = 1 << iota
	fieldMemory
	fieldContextLimit
	fieldThreshold
	fieldHighWater
	fieldLastRequest
)

var fieldNames = []struct {
	f    field
	name string
}{
	{fieldCurrentInput, "currentInputTokens"},
	{fieldMemory, "memoryTokens"},
	{fieldContextLimit, "modelContextLimit"},
	{fieldThreshold, "compressionThreshold"},
	{fieldHighWater, "highWaterMark"},
	{fieldLastRequest, "lastSuccessfulRequestTokenCount"},
}

// Patch is a partial update. Build one by chaining setters on the zero value:
//
//	telemetry.Patch{}.MemoryTokens(789).LastRequestTokens(telemetry.Known(1000))
//
// Fields that were never set are left untouched when the patch is applied.
type Patch struct {
	set    field
	values Snapshot
}

// CurrentInputTokens sets the size of the most recent outbound message.
// Negative values are clamped to 0.
func (p Patch) CurrentInputTokens(n int64) Patch {
	p.set |= fieldCurrentInput
	p.values.CurrentInputTokens = max(n, 0)
	return p
}

// MemoryTokens sets the memory footprint. Negative values are clamped to 0.
func (p Patch) MemoryTokens(n int64) Patch {
	p.set |= fieldMemory
	p.values.MemoryTokens = max(n, 0)
	return p
}

// ModelContextLimit sets the active model's context window.
func (p Patch) ModelContextLimit(c Count) Patch {
	p.set |= fieldContextLimit
	p.values.ModelContextLimit = c
	return p
}

// CompressionThreshold sets the compression trigger size.
func (p Patch) CompressionThreshold(c Count) Patch {
	p.set |= fieldThreshold
	p.values.CompressionThreshold = c
	return p
}

// HighWaterMark proposes a new high-water mark. Applying the patch never
// lowers a known mark.
func (p Patch) HighWaterMark(c Count) Patch {
	p.set |= fieldHighWater
	p.values.HighWaterMark = c
	return p
}

// LastRequestTokens sets the token count of the last completed exchange.
func (p Patch) LastRequestTokens(c Count) Patch {
	p.set |= fieldLastRequest
	p.values.LastSuccessfulRequestTokenCount = c
	return p
}

// Empty reports whether no field is set.
func (p Patch) Empty() bool {
	return p.set == 0
}

// Fields lists the names of the set fields in declaration order.
func (p Patch) Fields() []string {
	names := make([]string, 0, len(fieldNames))
	for _, fn := range fieldNames {
		if p.set&fn.f != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

// Apply merges the patch into s and returns the result. s is not modified.
//
// The high-water mark is only replaced when the current mark is unknown or
// the proposed one is strictly larger.
func (p Patch) Apply(s Snapshot) Snapshot {
	if p.set&fieldCurrentInput != 0 {
		s.CurrentInputTokens = p.values.CurrentInputTokens
	}
	if p.set&fieldMemory != 0 {
		s.MemoryTokens = p.values.MemoryTokens
	}
	if p.set&fieldContextLimit != 0 {
		s.ModelContextLimit = p.values.ModelContextLimit
	}
	if p.set&fieldThreshold != 0 {
		s.CompressionThreshold = p.values.CompressionThreshold
	}
	if p.set&fieldHighWater != 0 {
		s.HighWaterMark = raise(s.HighWaterMark, p.values.HighWaterMark)
	}
	if p.set&fieldLastRequest != 0 {
		s.LastSuccessfulRequestTokenCount = p.values.LastSuccessfulRequestTokenCount
	}
	return s
}

func raise(current, proposed Count) Count {
	next, ok := proposed.Value()
	if !ok {
		return current
	}
	if cur, known := current.Value(); known && next <= cur {
		return current
	}
	return proposed
}
