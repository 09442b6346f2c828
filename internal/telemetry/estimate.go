// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"reflect"
	"strings"
	"unicode/utf8"
)

// charsPerToken is the rough English ratio used by the estimator.
const charsPerToken = 4

// textFields are the part fields that may carry text, highest priority first.
var textFields = []string{"text", "value", "content"}

// TextPart is implemented by message parts that know their own text.
type TextPart interface {
	PartText() (string, bool)
}

// EstimateTokenCount approximates the token count of an outbound payload.
//
// A string is trimmed; empty text is Known(0), anything else is
// max(1, ceil(runes/4)). A slice is treated as a list of message parts: the
// first present field among text, value and content is read from each part
// and the lengths are summed. When no part yields text the result is Unknown,
// which is distinct from a confirmed-empty message. Any other payload is
// Unknown.
//
// This is a heuristic for display only and never panics.
func EstimateTokenCount(payload any) (estimate Count) {
	defer func() {
		if r := recover(); r != nil {
			estimate = Unknown
		}
	}()

	switch v := payload.(type) {
	case nil:
		return Unknown
	case string:
		return estimateText(v)
	case []any:
		return estimateParts(len(v), func(i int) any { return v[i] })
	case []map[string]any:
		return estimateParts(len(v), func(i int) any { return v[i] })
	case []TextPart:
		return estimateParts(len(v), func(i int) any { return v[i] })
	}

	rv := reflect.ValueOf(payload)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return estimateParts(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	}
	return Unknown
}

func estimateText(s string) Count {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n == 0 {
		return Known(0)
	}
	return Known(int64(tokensFor(n)))
}

func estimateParts(n int, at func(int) any) Count {
	chars := 0
	for i := 0; i < n; i++ {
		if text, ok := partText(at(i)); ok {
			chars += utf8.RuneCountInString(text)
		}
	}
	if chars == 0 {
		return Unknown
	}
	return Known(int64(tokensFor(chars)))
}

func tokensFor(chars int) int {
	return max(1, (chars+charsPerToken-1)/charsPerToken)
}

// partText returns the text carried by a single part. The first present,
// non-nil field decides: a non-string value there means no text even if a
// lower-priority field holds a string.
func partText(part any) (string, bool) {
	switch p := part.(type) {
	case nil:
		return "", false
	case TextPart:
		return p.PartText()
	case map[string]any:
		for _, key := range textFields {
			if v, ok := p[key]; ok && v != nil {
				s, isString := v.(string)
				return s, isString
			}
		}
		return "", false
	case map[string]string:
		for _, key := range textFields {
			if s, ok := p[key]; ok {
				return s, true
			}
		}
		return "", false
	}

	return structText(reflect.ValueOf(part))
}

// structText reads Text, Value or Content from a struct (or pointer to one).
// As with maps, the first present field decides even when it is empty; only
// missing fields and nil pointers fall through.
func structText(rv reflect.Value) (string, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return "", false
	}

	for _, key := range textFields {
		f := rv.FieldByName(strings.ToUpper(key[:1]) + key[1:])
		if !f.IsValid() || !f.CanInterface() {
			continue
		}
		if f.Kind() == reflect.Pointer {
			if f.IsNil() {
				continue
			}
			f = f.Elem()
		}
		if f.Kind() != reflect.String {
			return "", false
		}
		return f.String(), true
	}
	return "", false
}
