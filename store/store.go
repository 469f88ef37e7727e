// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package store defines the persistent room-event-log interface the
// core's in-memory event.DAG is backed by for durability, plus an
// in-memory reference implementation. Persistence itself is outside
// the core's scope; this package gives that concern a concrete,
// swappable home.
package store

import (
	"context"

	"github.com/p2pspace/core/event"
)

// RoomLog is a durable, content-addressed, idempotent append-only
// log for a single (Space, Room), mirroring event.DAG's storage
// semantics but with an explicit context for implementations backed
// by I/O.
type RoomLog interface {
	// Append persists e. Re-appending an already-stored event_id is
	// a no-op, not an error.
	Append(ctx context.Context, e *event.Event) error
	// Get returns the stored event, if any.
	Get(ctx context.Context, eventID string) (*event.Event, bool, error)
	// Heads returns the current frontier, sorted ascending.
	Heads(ctx context.Context) ([]string, error)
	// All returns every stored event, in no particular order; callers
	// needing deterministic order should feed the result through
	// event.DAG.TopoSort.
	All(ctx context.Context) ([]*event.Event, error)
}

// MemoryLog is an in-memory RoomLog backed directly by an event.DAG.
// It is the default store used by a single-process embedder and by
// tests.
type MemoryLog struct {
	dag *event.DAG
}

// NewMemoryLog wraps dag as a RoomLog.
func NewMemoryLog(dag *event.DAG) *MemoryLog {
	return &MemoryLog{dag: dag}
}

func (m *MemoryLog) Append(_ context.Context, e *event.Event) error {
	return m.dag.Add(e)
}

func (m *MemoryLog) Get(_ context.Context, eventID string) (*event.Event, bool, error) {
	e, ok := m.dag.Get(eventID)
	return e, ok, nil
}

func (m *MemoryLog) Heads(_ context.Context) ([]string, error) {
	return m.dag.Heads(), nil
}

func (m *MemoryLog) All(_ context.Context) ([]*event.Event, error) {
	return m.dag.TopoSort(), nil
}
