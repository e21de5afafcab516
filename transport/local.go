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
	"sync"
)

// Local is an in-process, channel-backed fake cluster: one Local per
// simulated rank, sharing a registry of mailboxes. It is what unit tests
// and single-binary multi-rank demos use in place of a real network.
type Local struct {
	self, world int
	reg         *localRegistry
}

type localKey struct{ from, to, tag int }

type localRegistry struct {
	mu    sync.Mutex
	boxes map[localKey]chan []byte
}

func (r *localRegistry) box(k localKey) chan []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.boxes[k]
	if !ok {
		ch = make(chan []byte, 1)
		r.boxes[k] = ch
	}
	return ch
}

// NewLocalCluster returns world Local transports, one per simulated rank,
// wired to exchange messages amongst themselves.
func NewLocalCluster(world int) []*Local {
	reg := &localRegistry{boxes: make(map[localKey]chan []byte)}
	ranks := make([]*Local, world)
	for i := range ranks {
		ranks[i] = &Local{self: i, world: world, reg: reg}
	}
	return ranks
}

func (l *Local) SelfRank() int  { return l.self }
func (l *Local) WorldSize() int { return l.world }

func (l *Local) AllToAll(ctx context.Context, send []int64) ([]int64, error) {
	return AllToAll(ctx, l, send)
}

func (l *Local) ISend(ctx context.Context, peer, tag int, payload []byte) (Request, error) {
	ch := l.reg.box(localKey{from: l.self, to: peer, tag: tag})
	done := make(chan error, 1)
	go func() {
		select {
		case ch <- payload:
			done <- nil
		case <-ctx.Done():
			done <- ctx.Err()
		}
	}()
	return &localSendRequest{done: done}, nil
}

func (l *Local) IRecv(ctx context.Context, peer, tag int) (Request, error) {
	ch := l.reg.box(localKey{from: peer, to: l.self, tag: tag})
	return &localRecvRequest{ch: ch}, nil
}

type localSendRequest struct{ done chan error }

func (r *localSendRequest) Wait(ctx context.Context) ([]byte, error) {
	select {
	case err := <-r.done:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type localRecvRequest struct{ ch chan []byte }

func (r *localRecvRequest) Wait(ctx context.Context) ([]byte, error) {
	select {
	case data := <-r.ch:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
