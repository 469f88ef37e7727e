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

// Package syncproto implements the per-Room anti-entropy gossip
// session: the hello/heads/want/have state machine, rate limiting,
// and gap-fill of missing ancestors.
package syncproto

import (
	"github.com/p2pspace/core/event"
)

// Type identifies a sync frame's kind.
type Type string

const (
	TypeHello Type = "hello"
	TypeHeads Type = "heads"
	TypeWant  Type = "want"
	TypeHave  Type = "have"
)

// Frame bounds.
const (
	MaxHeads = 256
	MaxWant  = 256
	MaxHave  = 64

	// MaxFrameBytes caps a whole serialized frame; transports
	// enforce it on read so an oversized frame never reaches the
	// session.
	MaxFrameBytes = 256 * 1024
)

// Frame is the wire shape every sync message shares: {t, v, spaceId,
// roomId} plus kind-specific fields, all optional outside their own
// frame type.
type Frame struct {
	T       Type           `json:"t"`
	V       int            `json:"v"`
	SpaceID string         `json:"spaceId"`
	RoomID  string         `json:"roomId"`
	Heads   []string       `json:"heads,omitempty"`
	IDs     []string       `json:"ids,omitempty"`
	Events  []*event.Event `json:"events,omitempty"`
}

func newFrame(t Type, spaceID, roomID string) Frame {
	return Frame{T: t, V: 1, SpaceID: spaceID, RoomID: roomID}
}

// HelloFrame builds a hello frame.
func HelloFrame(spaceID, roomID string) Frame {
	return newFrame(TypeHello, spaceID, roomID)
}

// HeadsFrame builds a heads frame, capping heads at MaxHeads.
func HeadsFrame(spaceID, roomID string, heads []string) Frame {
	f := newFrame(TypeHeads, spaceID, roomID)
	f.Heads = capStrings(heads, MaxHeads)
	return f
}

// WantFrame builds a want frame, capping ids at MaxWant.
func WantFrame(spaceID, roomID string, ids []string) Frame {
	f := newFrame(TypeWant, spaceID, roomID)
	f.IDs = capStrings(ids, MaxWant)
	return f
}

// HaveFrame builds a have frame, capping events at MaxHave.
func HaveFrame(spaceID, roomID string, events []*event.Event) Frame {
	f := newFrame(TypeHave, spaceID, roomID)
	if len(events) > MaxHave {
		events = events[:MaxHave]
	}
	f.Events = events
	return f
}

func capStrings(ids []string, max int) []string {
	if len(ids) > max {
		return ids[:max]
	}
	return ids
}
