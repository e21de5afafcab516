/*
Copyright (C) 2024  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocket is a networked Transport: every rank pair holds one full-duplex
// websocket connection, over which (tag, payload) frames are multiplexed.
// It is the cross-process counterpart to Local.
type WebSocket struct {
	self, world int
	peerAddrs   []string // length world; peerAddrs[self] is unused

	mu    sync.Mutex
	conns map[int]*wsConn
	boxes map[localKey]chan []byte

	upgrader websocket.Upgrader
}

type wsConn struct {
	mu   sync.Mutex // serializes writes per gorilla/websocket's single-writer requirement
	conn *websocket.Conn
}

// NewWebSocket builds a WebSocket transport for rank self among world
// ranks; peerAddrs[p] is the "host:port" this rank dials to reach rank p.
func NewWebSocket(self, world int, peerAddrs []string) *WebSocket {
	return &WebSocket{
		self: self, world: world, peerAddrs: peerAddrs,
		conns: make(map[int]*wsConn),
		boxes: make(map[localKey]chan []byte),
	}
}

func (w *WebSocket) SelfRank() int  { return w.self }
func (w *WebSocket) WorldSize() int { return w.world }

// ServeHTTP accepts an inbound peer connection; the dialer's first text
// frame carries its rank id as a decimal string (the handshake).
func (w *WebSocket) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}
	var peer int
	if _, err := fmt.Sscanf(string(data), "%d", &peer); err != nil {
		conn.Close()
		return
	}
	w.adopt(peer, conn)
}

// Dial connects to peer's listener and performs the rank handshake.
func (w *WebSocket) Dial(ctx context.Context, peer int) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, "ws://"+w.peerAddrs[peer]+"/pscs/migrate", nil)
	if err != nil {
		return fmt.Errorf("transport: dial peer %d: %w", peer, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("%d", w.self))); err != nil {
		conn.Close()
		return fmt.Errorf("transport: handshake with peer %d: %w", peer, err)
	}
	w.adopt(peer, conn)
	return nil
}

func (w *WebSocket) adopt(peer int, conn *websocket.Conn) {
	wc := &wsConn{conn: conn}
	w.mu.Lock()
	w.conns[peer] = wc
	w.mu.Unlock()
	go w.readLoop(peer, wc)
}

func (w *WebSocket) readLoop(peer int, wc *wsConn) {
	for {
		_, data, err := wc.conn.ReadMessage()
		if err != nil {
			return
		}
		if len(data) < 4 {
			continue
		}
		tag := int(int32(binary.LittleEndian.Uint32(data[:4])))
		payload := append([]byte(nil), data[4:]...)
		w.box(localKey{from: peer, to: w.self, tag: tag}) <- payload
	}
}

func (w *WebSocket) box(k localKey) chan []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.boxes[k]
	if !ok {
		ch = make(chan []byte, 8)
		w.boxes[k] = ch
	}
	return ch
}

func (w *WebSocket) AllToAll(ctx context.Context, send []int64) ([]int64, error) {
	return AllToAll(ctx, w, send)
}

func (w *WebSocket) ISend(ctx context.Context, peer, tag int, payload []byte) (Request, error) {
	w.mu.Lock()
	wc, ok := w.conns[peer]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("transport: no connection to peer %d", peer)
	}
	frame := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(frame[:4], uint32(int32(tag)))
	copy(frame[4:], payload)

	done := make(chan error, 1)
	go func() {
		wc.mu.Lock()
		defer wc.mu.Unlock()
		done <- wc.conn.WriteMessage(websocket.BinaryMessage, frame)
	}()
	return &localSendRequest{done: done}, nil
}

func (w *WebSocket) IRecv(ctx context.Context, peer, tag int) (Request, error) {
	return &localRecvRequest{ch: w.box(localKey{from: peer, to: w.self, tag: tag})}, nil
}
