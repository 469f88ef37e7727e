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

// Package pgstore implements store.RoomLog on top of PostgreSQL via
// pgx, for embedders that want a room's event log to outlive the
// process.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p2pspace/core/event"
)

// Schema is the DDL a deployment runs once per (space, room) table
// set. It is exported rather than applied automatically; running
// migrations is the operator's job.
const Schema = `
CREATE TABLE IF NOT EXISTS room_events (
	space_id  TEXT NOT NULL,
	room_id   TEXT NOT NULL,
	event_id  TEXT NOT NULL,
	ts        BIGINT NOT NULL,
	payload   JSONB NOT NULL,
	PRIMARY KEY (space_id, room_id, event_id)
);
CREATE INDEX IF NOT EXISTS room_events_ts_idx ON room_events (space_id, room_id, ts);
`

// Log implements store.RoomLog for a single (space_id, room_id) pair
// against a shared connection pool.
type Log struct {
	pool    *pgxpool.Pool
	spaceID string
	roomID  string
}

// New returns a Log scoped to spaceID/roomID, using pool for queries.
func New(pool *pgxpool.Pool, spaceID, roomID string) *Log {
	return &Log{pool: pool, spaceID: spaceID, roomID: roomID}
}

// Append persists e, silently treating a duplicate event_id as
// success.
func (l *Log) Append(ctx context.Context, e *event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("pgstore: marshal event: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO room_events (space_id, room_id, event_id, ts, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (space_id, room_id, event_id) DO NOTHING
	`, l.spaceID, l.roomID, e.EventID, e.Ts, payload)
	if err != nil {
		return fmt.Errorf("pgstore: append event: %w", err)
	}
	return nil
}

// Get returns the stored event, if any.
func (l *Log) Get(ctx context.Context, eventID string) (*event.Event, bool, error) {
	var payload []byte
	err := l.pool.QueryRow(ctx, `
		SELECT payload FROM room_events WHERE space_id = $1 AND room_id = $2 AND event_id = $3
	`, l.spaceID, l.roomID, eventID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pgstore: get event: %w", err)
	}
	var e event.Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, false, fmt.Errorf("pgstore: decode event: %w", err)
	}
	return &e, true, nil
}

// Heads recomputes the frontier by rebuilding an in-memory DAG from
// every stored event. This is O(events) per call; a production
// deployment would maintain a materialized heads table instead, but
// this keeps the adapter's invariants visibly identical to
// event.DAG's.
func (l *Log) Heads(ctx context.Context) ([]string, error) {
	events, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	dag := event.NewDAG(l.roomID)
	pending := orderForReplay(events)
	for len(pending) > 0 {
		var next []*event.Event
		progressed := false
		for _, e := range pending {
			if dag.Add(e) == nil {
				progressed = true
				continue
			}
			next = append(next, e)
		}
		if !progressed {
			break // remaining events reference ids never stored; leave them out
		}
		pending = next
	}
	return dag.Heads(), nil
}

// All returns every stored event for this (space, room), in no
// particular order.
func (l *Log) All(ctx context.Context) ([]*event.Event, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT payload FROM room_events WHERE space_id = $1 AND room_id = $2
	`, l.spaceID, l.roomID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list events: %w", err)
	}
	defer rows.Close()

	var out []*event.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("pgstore: scan event: %w", err)
		}
		var e event.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("pgstore: decode event: %w", err)
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: iterate events: %w", err)
	}
	return out, nil
}

// orderForReplay sorts events so that, for well-formed input, parents
// are re-added before children: an ascending sort by ts is not a
// topological guarantee on its own, but event.DAG.Add tolerates being
// fed out of order by simply erroring on events whose parents are not
// yet present, so here we retry skipped events across passes.
func orderForReplay(events []*event.Event) []*event.Event {
	sort.Slice(events, func(i, j int) bool { return events[i].Ts < events[j].Ts })
	return events
}
