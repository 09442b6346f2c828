// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("memory store closed")

	// ErrEmptyContent is returned when saving blank text.
	ErrEmptyContent = errors.New("memory content is empty")
)

// InMemory opens a database that lives only as long as the store.
const InMemory = ":memory:"

// Memory is one saved fact.
type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Tokens    int64     `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps saved memories in SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open opens or creates the database at path. Pass InMemory for a
// throwaway database.
func Open(path string) (*Store, error) {
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps an in-memory
	// database alive for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db}, nil
}

// Save stores content and returns the saved memory.
func (s *Store) Save(ctx context.Context, content string) (Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Memory{}, ErrEmptyContent
	}

	mem := Memory{
		ID:        uuid.NewString(),
		Content:   content,
		Tokens:    telemetry.EstimateTokenCount(content).Or(0),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Memory{}, ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memories (id, content, tokens, created_at) VALUES (?, ?, ?, ?)",
		mem.ID, mem.Content, mem.Tokens, mem.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Memory{}, fmt.Errorf("failed to save memory: %w", err)
	}
	return mem, nil
}

// List returns all memories, oldest first.
func (s *Store) List(ctx context.Context) ([]Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.list(ctx)
}

func (s *Store) list(ctx context.Context) ([]Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, content, tokens, created_at FROM memories ORDER BY created_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}
	defer rows.Close()

	var out []Memory
	for rows.Next() {
		var m Memory
		var created int64
		if err := rows.Scan(&m.ID, &m.Content, &m.Tokens, &created); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		m.CreatedAt = time.Unix(0, created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Count returns the number of saved memories.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrClosed
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memories").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count memories: %w", err)
	}
	return n, nil
}

// Delete removes a memory. Deleting an unknown ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM memories WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return nil
}

// Footprint estimates the tokens all saved memory adds to a prompt. The
// memories are joined the way they are sent, one per line, and estimated as
// a single text. An empty store is Known(0).
func (s *Store) Footprint(ctx context.Context) (telemetry.Count, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return telemetry.Unknown, ErrClosed
	}
	return s.footprint(ctx)
}

// WithFootprint computes the footprint and passes it to fn with writes held
// off, so fn never publishes a value older than a save that has returned.
func (s *Store) WithFootprint(ctx context.Context, fn func(telemetry.Count)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	footprint, err := s.footprint(ctx)
	if err != nil {
		return err
	}
	fn(footprint)
	return nil
}

func (s *Store) footprint(ctx context.Context) (telemetry.Count, error) {
	memories, err := s.list(ctx)
	if err != nil {
		return telemetry.Unknown, err
	}
	lines := make([]string, len(memories))
	for i, m := range memories {
		lines[i] = "- " + m.Content
	}
	return telemetry.EstimateTokenCount(strings.Join(lines, "\n")), nil
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
