// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instrument

import (
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/jeranaias/tokenmeter/internal/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recordingAPI captures every patch applied to an underlying store.
type recordingAPI struct {
	store *telemetry.Store

	mu      sync.Mutex
	patches []telemetry.Patch
}

func newRecordingAPI() *recordingAPI {
	return &recordingAPI{store: telemetry.NewStore()}
}

func (r *recordingAPI) Get() telemetry.Snapshot { return r.store.Get() }

func (r *recordingAPI) Subscribe(fn func(telemetry.Snapshot)) func() {
	return r.store.Subscribe(fn)
}

func (r *recordingAPI) Update(p telemetry.Patch) {
	r.mu.Lock()
	r.patches = append(r.patches, p)
	r.mu.Unlock()
	r.store.Update(p)
}

func (r *recordingAPI) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patches)
}

// panicAPI panics on every call.
type panicAPI struct{}

func (panicAPI) Get() telemetry.Snapshot                   { panic("get") }
func (panicAPI) Subscribe(func(telemetry.Snapshot)) func() { panic("subscribe") }
func (panicAPI) Update(telemetry.Patch)                    { panic("update") }
