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

// Package transport defines the ordered, bidirectional channel a
// syncproto.Session sends and receives frames over, plus a reference
// implementation on top of a WebSocket connection.
package transport

import "github.com/p2pspace/core/syncproto"

// Transport is the minimum surface a sync Session needs from a wire
// connection: ordered, reliable delivery in both directions.
// Implementations are responsible for framing (one syncproto.Frame
// per message) and for calling Close when the peer disconnects.
type Transport interface {
	// Send writes a single frame. Send must serialize concurrent
	// callers itself; syncproto.Session assumes a Send function is
	// always safe to call.
	Send(f syncproto.Frame) error
	// Recv blocks until one frame arrives or the transport closes.
	Recv() (syncproto.Frame, error)
	// Close closes the underlying connection.
	Close() error
}
