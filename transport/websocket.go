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

package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/p2pspace/core/syncproto"
)

// WSTransport is the reference Transport over a WebSocket connection:
// one JSON-encoded syncproto.Frame per WebSocket message, in each
// direction.
type WSTransport struct {
	conn *websocket.Conn

	writeMu      sync.Mutex
	writeTimeout time.Duration
	readTimeout  time.Duration
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Dial opens a WebSocket client connection to url and wraps it.
func Dial(ctx context.Context, url string) (*WSTransport, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("transport: dial failed: %w", err)
	}
	return newWSTransport(conn), nil
}

// Accept upgrades an inbound HTTP request to a WebSocket server
// connection and wraps it.
func Accept(w http.ResponseWriter, r *http.Request) (*WSTransport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: upgrade failed: %w", err)
	}
	return newWSTransport(conn), nil
}

func newWSTransport(conn *websocket.Conn) *WSTransport {
	conn.SetReadLimit(syncproto.MaxFrameBytes)
	return &WSTransport{
		conn:         conn,
		writeTimeout: 30 * time.Second,
		readTimeout:  60 * time.Second,
	}
}

// Send implements Transport.
func (t *WSTransport) Send(f syncproto.Frame) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if err := t.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("transport: write frame: %w", err)
	}
	return nil
}

// Recv implements Transport.
func (t *WSTransport) Recv() (syncproto.Frame, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return syncproto.Frame{}, fmt.Errorf("transport: set read deadline: %w", err)
	}
	var f syncproto.Frame
	if err := t.conn.ReadJSON(&f); err != nil {
		return syncproto.Frame{}, fmt.Errorf("transport: read frame: %w", err)
	}
	return f, nil
}

// Close implements Transport.
func (t *WSTransport) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.writeMu.Unlock()
	return t.conn.Close()
}

// Pump reads frames from t in a loop, handing each to handle, until
// Recv returns an error (peer close, read timeout, or Close having
// been called). It is meant to run in its own goroutine, one per
// accepted connection.
func Pump(t *WSTransport, handle func(syncproto.Frame) error) error {
	for {
		f, err := t.Recv()
		if err != nil {
			return err
		}
		if err := handle(f); err != nil {
			return err
		}
	}
}
