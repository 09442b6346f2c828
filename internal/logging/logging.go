// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide structured logger.
//
// Logs are JSON lines written through a size-rotated file. Until Setup is
// called the slog default logger is left alone, and interactive modes call
// Discard so nothing leaks onto the terminal.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	MaxSizeMB  = 10
	MaxAgeDays = 30
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup installs a JSON logger writing to logFile as the slog default. Only
// the first call has any effect.
func Setup(logFile string, debug bool) {
	initOnce.Do(func() {
		if dir := filepath.Dir(logFile); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}

		rotator := &lumberjack.Logger{
			Filename: logFile,
			MaxSize:  MaxSizeMB,
			MaxAge:   MaxAgeDays,
		}

		slog.SetDefault(New(rotator, debug))
		initialized.Store(true)
	})
}

// New builds a JSON logger on w.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}))
}

// Initialized reports whether Setup has run.
func Initialized() bool {
	return initialized.Load()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Or returns logger, or the slog default when logger is nil.
func Or(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// RecoverPanic must be deferred. On panic it writes the value and stack to a
// timestamped file in the working directory, then runs cleanup.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("tokenmeter-panic-%s-%s.log", name, timestamp)
	if file, err := os.Create(filename); err == nil {
		fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
		fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
		fmt.Fprintf(file, "Stack Trace:\n%s\n", debug.Stack())
		file.Close()
	}
	slog.Error("panic recovered", "name", name, "panic", r)

	if cleanup != nil {
		cleanup()
	}
}
