// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

// usageBridge turns store notifications into tea messages. Only the newest
// undelivered snapshot is kept.
type usageBridge struct {
	ch          chan telemetry.Snapshot
	done        chan struct{}
	unsubscribe func()
	closeOnce   sync.Once
}

func newUsageBridge(store *telemetry.Store) *usageBridge {
	b := &usageBridge{
		ch:   make(chan telemetry.Snapshot, 1),
		done: make(chan struct{}),
	}
	b.unsubscribe = store.Subscribe(b.offer)
	return b
}

// offer replaces any pending snapshot with s. It never blocks.
func (b *usageBridge) offer(s telemetry.Snapshot) {
	for {
		select {
		case b.ch <- s:
			return
		default:
		}
		select {
		case <-b.ch:
		default:
		}
	}
}

// wait returns a command that delivers the next snapshot as a UsageMsg.
// It returns nil once the bridge is closed.
func (b *usageBridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-b.ch:
			return UsageMsg{Snapshot: s}
		case <-b.done:
			return nil
		}
	}
}

func (b *usageBridge) close() {
	b.closeOnce.Do(func() {
		b.unsubscribe()
		close(b.done)
	})
}
