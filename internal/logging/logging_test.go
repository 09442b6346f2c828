// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("usage updated", "memory_tokens", 789)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "usage updated", line["msg"])
	assert.Equal(t, float64(789), line["memory_tokens"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestOr(t *testing.T) {
	assert.Same(t, slog.Default(), Or(nil))

	logger := Discard()
	assert.Same(t, logger, Or(logger))
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "tokenmeter.log")
	Setup(path, true)
	require.True(t, Initialized())

	slog.Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestRecoverPanic_RunsCleanup(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cleaned := false
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("boom")
	}()

	assert.True(t, cleaned)
	matches, err := filepath.Glob("tokenmeter-panic-test-*.log")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
