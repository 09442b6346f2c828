// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tokenmeter/internal/instrument"
	"github.com/jeranaias/tokenmeter/internal/memory"
	"github.com/jeranaias/tokenmeter/internal/model"
	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

var (
	// ErrNoMemory is returned by Remember when no memory store is configured.
	ErrNoMemory = errors.New("memory is not configured")

	// ErrNothingToCompress is returned by Compress before any prompt size
	// is known.
	ErrNothingToCompress = errors.New("nothing to compress")

	// ErrMemoryNotFound is returned by Forget when no memory ID matches.
	ErrMemoryNotFound = errors.New("memory not found")

	// ErrAmbiguousMemory is returned by Forget when the prefix matches more
	// than one memory.
	ErrAmbiguousMemory = errors.New("ambiguous memory ID")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// Compression ratios: history is compressed once it reaches
// CompressionTokenThreshold of the context window and keeps
// CompressionPreserveFraction of its size.
const (
	CompressionTokenThreshold   = 0.7
	CompressionPreserveFraction = 0.3
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Session.
type Options struct {
	// Model is the active model ID.
	Model string

	// Registry resolves context windows. Nil uses the built-in models.
	Registry *model.Registry

	// Memory enables Remember and background memory refreshes. The caller
	// keeps ownership and closes it.
	Memory *memory.Store

	// RefreshInterval throttles memory refreshes.
	RefreshInterval time.Duration

	// RefreshTimeout bounds a single memory refresh.
	RefreshTimeout time.Duration

	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// =============================================================================
// SESSION
// =============================================================================

// Session is one interactive session.
type Session struct {
	id       string
	started  time.Time
	now      func() time.Time
	logger   *slog.Logger
	registry *model.Registry
	memory   *memory.Store
	refresh  *memory.Refresher

	usage   *telemetry.Store
	adapter *instrument.Adapter

	mu       sync.Mutex
	model    string
	prompts  int
	lastSend time.Time
	closed   bool
}

// New creates a session whose store knows the model's context window.
func New(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = model.NewRegistry(nil)
	}

	s := &Session{
		id:       uuid.NewString(),
		started:  now(),
		now:      now,
		registry: registry,
		memory:   opts.Memory,
		model:    opts.Model,
	}
	s.logger = logger.With("session", s.id)

	initial := telemetry.DefaultSnapshot()
	initial.ModelContextLimit = telemetry.Known(registry.TokenLimit(opts.Model))
	s.usage = telemetry.NewStore(
		telemetry.WithLogger(s.logger),
		telemetry.WithSnapshot(initial),
	)

	var refresh instrument.RefreshFunc
	if opts.Memory != nil {
		s.refresh = memory.NewRefresher(opts.Memory, s.usage, opts.RefreshInterval, s.logger)
		refresh = s.refresh.Refresh
	}
	adapterOpts := []instrument.AdapterOption{instrument.WithLogger(s.logger)}
	if opts.RefreshTimeout > 0 {
		adapterOpts = append(adapterOpts, instrument.WithRefreshTimeout(opts.RefreshTimeout))
	}
	s.adapter = instrument.NewAdapter(s.usage, refresh, adapterOpts...)

	return s
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// StartTime returns when the session began.
func (s *Session) StartTime() time.Time {
	return s.started
}

// Usage returns the session's usage store.
func (s *Session) Usage() *telemetry.Store {
	return s.usage
}

// Adapter returns the session's instrumentation adapter.
func (s *Session) Adapter() *instrument.Adapter {
	return s.adapter
}

// Registry returns the model registry the session resolves windows with.
func (s *Session) Registry() *model.Registry {
	return s.registry
}

// Model returns the active model ID.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

// SetModel switches the active model and publishes its context window.
func (s *Session) SetModel(id string) {
	s.mu.Lock()
	s.model = id
	s.mu.Unlock()
	s.usage.Update(telemetry.Patch{}.ModelContextLimit(telemetry.Known(s.registry.TokenLimit(id))))
}

// SetModelLimits replaces user-configured context windows and republishes
// the active model's limit.
func (s *Session) SetModelLimits(extras map[string]int64) {
	s.registry.Set(extras)
	s.SetModel(s.Model())
}

// Send records an outbound prompt and returns its estimate.
func (s *Session) Send(text string) (telemetry.Count, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return telemetry.Unknown, ErrClosed
	}
	s.prompts++
	s.lastSend = s.now()
	s.mu.Unlock()

	msg := model.NewUserMessage(text)
	return s.adapter.Send(msg.Parts), nil
}

// Remember saves text to memory and reports the save as a completed
// save_memory call.
func (s *Session) Remember(ctx context.Context, text string) error {
	if s.isClosed() {
		return ErrClosed
	}
	if s.memory == nil {
		return ErrNoMemory
	}

	call, err := s.memory.Remember(ctx, uuid.NewString(), text)
	s.adapter.CompletedTools([]instrument.ToolCall{call})
	return err
}

// Memories lists saved memories, oldest first.
func (s *Session) Memories(ctx context.Context) ([]memory.Memory, error) {
	if s.memory == nil {
		return nil, ErrNoMemory
	}
	return s.memory.List(ctx)
}

// Forget deletes the memory whose ID starts with prefix and refreshes the
// memory footprint before returning.
func (s *Session) Forget(ctx context.Context, prefix string) (memory.Memory, error) {
	if s.isClosed() {
		return memory.Memory{}, ErrClosed
	}
	if s.memory == nil {
		return memory.Memory{}, ErrNoMemory
	}

	all, err := s.memory.List(ctx)
	if err != nil {
		return memory.Memory{}, err
	}
	var matches []memory.Memory
	for _, m := range all {
		if prefix != "" && strings.HasPrefix(m.ID, prefix) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return memory.Memory{}, fmt.Errorf("%w: %q", ErrMemoryNotFound, prefix)
	case 1:
	default:
		return memory.Memory{}, fmt.Errorf("%w: %q matches %d memories", ErrAmbiguousMemory, prefix, len(matches))
	}

	if err := s.memory.Delete(ctx, matches[0].ID); err != nil {
		return memory.Memory{}, err
	}
	if err := s.refresh.Refresh(ctx); err != nil {
		s.logger.Warn("memory refresh after delete failed", "error", err)
	}
	return matches[0], nil
}

// CompletedTools forwards externally completed tool calls.
func (s *Session) CompletedTools(calls []instrument.ToolCall) {
	if s.isClosed() {
		return
	}
	s.adapter.CompletedTools(calls)
}

// Compress compresses the history at the current prompt size. The
// threshold is CompressionTokenThreshold of the context window.
func (s *Session) Compress() (instrument.CompressionEvent, error) {
	if s.isClosed() {
		return instrument.CompressionEvent{}, ErrClosed
	}

	snap := s.usage.Get()
	original, ok := snap.PromptTokenCount().Value()
	if !ok || original == 0 {
		return instrument.CompressionEvent{}, ErrNothingToCompress
	}

	ev := instrument.CompressionEvent{
		OriginalTokenCount:   original,
		NewTokenCount:        int64(math.Ceil(float64(original) * CompressionPreserveFraction)),
		CompressionThreshold: -1,
	}
	if limit, ok := snap.ModelContextLimit.Value(); ok {
		ev.CompressionThreshold = int64(math.Floor(float64(limit) * CompressionTokenThreshold))
	}

	s.adapter.Compression(ev, s.now())
	return ev, nil
}

// Reset clears usage back to defaults, keeping the high-water mark and the
// model's context window.
func (s *Session) Reset() {
	s.usage.Reset()
	s.SetModel(s.Model())
}

// =============================================================================
// STATS
// =============================================================================

// Stats is a point-in-time summary for the stats panel.
type Stats struct {
	ID         string
	Model      string
	Started    time.Time
	Duration   time.Duration
	Prompts    int
	LastPrompt time.Time
	Memories   int
	Usage      telemetry.Snapshot
}

// Stats returns a summary of the session. Memories is -1 when no memory
// store is configured or it cannot be read.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	st := Stats{
		ID:         s.id,
		Model:      s.model,
		Started:    s.started,
		Duration:   s.now().Sub(s.started),
		Prompts:    s.prompts,
		LastPrompt: s.lastSend,
		Memories:   -1,
	}
	s.mu.Unlock()

	st.Usage = s.usage.Get()
	if s.memory != nil {
		if n, err := s.memory.Count(context.Background()); err == nil {
			st.Memories = n
		}
	}
	return st
}

// Close waits for background refreshes and rejects further events.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	prompts := s.prompts
	s.mu.Unlock()

	s.adapter.Wait()
	s.logger.Debug("session closed", "prompts", prompts)
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
