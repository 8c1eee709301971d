// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scdatalink implements the BACnet/SC data-link: a thin
// concrete transport carrying one BACnet frame per binary WebSocket
// message, in place of BACnet/IP's BVLC-over-UDP framing.
package scdatalink

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// Transport is a BACnet/SC data-link connected to a single peer over
// one WebSocket. Unlike the UDP transport it is inherently
// point-to-point: a BACnet/SC hub fans connections out above this
// layer, not within it.
type Transport struct {
	uri string

	mu   sync.Mutex
	conn *websocket.Conn

	recvMu sync.Mutex // serializes consumers draining the inbound side

	dialer *websocket.Dialer
}

// NewTransport creates a BACnet/SC transport that will dial uri on Open.
func NewTransport(uri string) *Transport {
	return &Transport{
		uri:    uri,
		dialer: websocket.DefaultDialer,
	}
}

// Open dials the configured WebSocket endpoint.
func (t *Transport) Open(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	conn, _, err := t.dialer.DialContext(ctx, t.uri, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.uri, err)
	}

	t.conn = conn
	return nil
}

// Close closes the underlying WebSocket connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	return err
}

// Send writes data as a single binary WebSocket message carrying one
// BACnet frame.
func (t *Transport) Send(ctx context.Context, data []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("scdatalink: transport not open")
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	return conn.WriteMessage(websocket.BinaryMessage, data)
}

// Receive blocks for the next inbound BACnet frame, silently skipping
// any non-binary messages (they are not surfaced as data and are not
// logged). Only one goroutine may call Receive at a time;
// concurrent callers serialize on recvMu the same way the UDP
// transport relies on the kernel to serialize socket reads.
func (t *Transport) Receive(ctx context.Context) ([]byte, error) {
	t.recvMu.Lock()
	defer t.recvMu.Unlock()

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("scdatalink: transport not open")
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		return data, nil
	}
}

// IsClosed reports whether the transport has been closed.
func (t *Transport) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn == nil
}
