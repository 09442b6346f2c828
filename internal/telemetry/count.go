// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Count is a token quantity that is either a non-negative integer or
// explicitly unknown. The zero value is Unknown.
type Count struct {
	n  int64
	ok bool
}

// Unknown is the Count for a value that could not be determined.
var Unknown = Count{}

// Known returns a Count holding n. Negative values are not valid token
// counts and yield Unknown.
func Known(n int64) Count {
	if n < 0 {
		return Unknown
	}
	return Count{n: n, ok: true}
}

// CountOf converts a loosely-typed number. NaN, infinities and negative
// values yield Unknown; fractions are truncated.
func CountOf(f float64) Count {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Unknown
	}
	if f >= math.MaxInt64 {
		return Known(math.MaxInt64)
	}
	return Known(int64(f))
}

// Value returns the count and whether it is known.
func (c Count) Value() (int64, bool) {
	return c.n, c.ok
}

// IsKnown reports whether the count holds a value.
func (c Count) IsKnown() bool {
	return c.ok
}

// Or returns the count, or def when unknown.
func (c Count) Or(def int64) int64 {
	if !c.ok {
		return def
	}
	return c.n
}

// Equal reports whether two counts hold the same state.
func (c Count) Equal(other Count) bool {
	return c.ok == other.ok && c.n == other.n
}

// String renders the count, using "--" for unknown.
func (c Count) String() string {
	if !c.ok {
		return "--"
	}
	return strconv.FormatInt(c.n, 10)
}

// MarshalJSON encodes unknown as null.
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(c.n, 10)), nil
}

// UnmarshalJSON accepts null or a number.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Unknown
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid token count %s: %w", data, err)
	}
	*c = CountOf(f)
	return nil
}
