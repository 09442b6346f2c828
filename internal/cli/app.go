// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tokenmeter/internal/config"
	"github.com/jeranaias/tokenmeter/internal/logging"
	"github.com/jeranaias/tokenmeter/internal/memory"
	"github.com/jeranaias/tokenmeter/internal/model"
	"github.com/jeranaias/tokenmeter/internal/session"
)

// app owns everything an interactive session needs.
type app struct {
	cfg     atomic.Pointer[config.Config]
	path    string
	logger  *slog.Logger
	memory  *memory.Store
	session *session.Session
	watcher *config.Watcher
}

// setupApp loads config, starts logging, opens the memory store and creates
// the session. A memory store that cannot be opened is logged and skipped.
func setupApp(cmd *cobra.Command) (*app, error) {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := logging.Discard()
	if logPath, err := cfg.LogFilePath(); err == nil {
		logging.Setup(logPath, cfg.Log.Debug)
		logger = slog.Default()
	}

	var store *memory.Store
	if dbPath, err := cfg.MemoryDBPath(); err == nil {
		store, err = memory.Open(dbPath)
		if err != nil {
			logger.Warn("memory disabled", "path", dbPath, "error", err)
			store = nil
		}
	}

	return newApp(cfg, path, store, logger), nil
}

// newApp wires a session around cfg. store may be nil.
func newApp(cfg *config.Config, path string, store *memory.Store, logger *slog.Logger) *app {
	a := &app{path: path, logger: logging.Or(logger), memory: store}
	a.cfg.Store(cfg)
	a.session = session.New(session.Options{
		Model:           cfg.Model,
		Registry:        model.NewRegistry(cfg.Models),
		Memory:          store,
		RefreshInterval: cfg.Memory.RefreshInterval(),
		RefreshTimeout:  cfg.Memory.RefreshTimeout(),
		Logger:          a.logger,
	})
	a.logger.Info("session started", "session", a.session.ID(), "model", cfg.Model, "memory", store != nil)
	return a
}

// Config returns the current configuration.
func (a *app) Config() *config.Config {
	return a.cfg.Load()
}

// watchConfig reloads the config file on change and hands the result to
// onChange. Failing to watch is logged, not fatal.
func (a *app) watchConfig(onChange func(*config.Config)) {
	if a.path == "" {
		return
	}
	w, err := config.Watch(a.path, config.DefaultDebounce, func(cfg *config.Config) {
		a.cfg.Store(cfg)
		onChange(cfg)
	}, a.logger)
	if err != nil {
		a.logger.Warn("config watch disabled", "path", a.path, "error", err)
		return
	}
	a.watcher = w
}

// Close stops the watcher, waits for the session and closes the store.
func (a *app) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	errs = append(errs, a.session.Close())
	if a.memory != nil {
		errs = append(errs, a.memory.Close())
	}
	a.logger.Info("session ended", "session", a.session.ID())
	return errors.Join(errs...)
}
