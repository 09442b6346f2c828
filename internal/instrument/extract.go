// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"regexp"
	"strconv"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// Field name variants, highest priority first.
var (
	memoryTokenKeys  = []string{"memory_token_count", "memoryTokens"}
	overallTokenKeys = []string{"total_token_count", "totalTokens", "tokenCount"}
)

// resultDisplayKey holds the human-readable result text of a tool call.
const resultDisplayKey = "resultDisplay"

// displayDigits finds the first run of 1-7 digits in a display string. When
// the text holds several numbers the first one wins, which is only a guess.
var displayDigits = regexp.MustCompile(`\d{1,7}`)

// Extraction sources, reported in debug logs.
const (
	sourceNone    = ""
	sourceList    = "list"
	sourceObject  = "object"
	sourceDisplay = "display"
)

type usageFields struct {
	memory  telemetry.Count
	overall telemetry.Count
	source  string
}

func (u usageFields) patch() telemetry.Patch {
	var p telemetry.Patch
	if n, ok := u.memory.Value(); ok {
		p = p.MemoryTokens(n)
	}
	if u.overall.IsKnown() {
		p = p.LastRequestTokens(u.overall)
	}
	return p
}

// extractUsage pulls token counts out of a save_memory response. It tries a
// single-element list, then a plain object, then the first number in the
// display text. The display scan is a heuristic: with several numbers in
// the text it takes the first one.
func extractUsage(response any) usageFields {
	response = decodeRaw(response)

	var found usageFields
	var object map[string]any

	if list, ok := asList(response); ok {
		if len(list) == 1 {
			if first, ok := asObject(list[0]); ok {
				found = fromObject(first, sourceList)
			}
		}
	} else if obj, ok := asObject(response); ok {
		object = obj
		found = fromObject(obj, sourceObject)
	}

	if !found.memory.IsKnown() && object != nil {
		if display, ok := object[resultDisplayKey].(string); ok {
			if m := displayDigits.FindString(display); m != "" {
				if n, err := strconv.ParseInt(m, 10, 64); err == nil {
					found.memory = telemetry.Known(n)
					if found.source == sourceNone {
						found.source = sourceDisplay
					}
				}
			}
		}
	}

	return found
}

func fromObject(obj map[string]any, source string) usageFields {
	found := usageFields{
		memory:  firstNumber(obj, memoryTokenKeys),
		overall: firstNumber(obj, overallTokenKeys),
	}
	if found.memory.IsKnown() || found.overall.IsKnown() {
		found.source = source
	}
	return found
}

func firstNumber(obj map[string]any, keys []string) telemetry.Count {
	for _, key := range keys {
		if c, ok := asCount(obj[key]); ok {
			return c
		}
	}
	return telemetry.Unknown
}

// asCount accepts Go numeric kinds and json.Number that hold a finite,
// non-negative value.
func asCount(v any) (telemetry.Count, bool) {
	switch n := v.(type) {
	case nil:
		return telemetry.Unknown, false
	case json.Number:
		if i, err := n.Int64(); err == nil {
			c := telemetry.Known(i)
			return c, c.IsKnown()
		}
		f, err := n.Float64()
		if err != nil {
			return telemetry.Unknown, false
		}
		c := telemetry.CountOf(f)
		return c, c.IsKnown()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		c := telemetry.Known(rv.Int())
		return c, c.IsKnown()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			u = math.MaxInt64
		}
		return telemetry.Known(int64(u)), true
	case reflect.Float32, reflect.Float64:
		c := telemetry.CountOf(rv.Float())
		return c, c.IsKnown()
	}
	return telemetry.Unknown, false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	}
	return nil, false
}

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok && obj != nil
}

// decodeRaw turns raw JSON payloads into generic values so they go through
// the same lookups as already-decoded responses.
func decodeRaw(v any) any {
	var raw []byte
	switch r := v.(type) {
	case json.RawMessage:
		raw = r
	case []byte:
		raw = r
	default:
		return v
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}
