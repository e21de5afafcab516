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
)

// allToAllTag is reserved for the count exchange; migrate's own traffic
// uses tags 0..k and never collides with it.
const allToAllTag = -1

// AllToAll implements the fixed-size-integer all-to-all exchange in terms
// of plain ISend/IRecv, so every Transport backend gets it for free.
func AllToAll(ctx context.Context, t Transport, send []int64) ([]int64, error) {
	world := t.WorldSize()
	self := t.SelfRank()
	if len(send) != world {
		return nil, fmt.Errorf("transport: AllToAll: len(send)=%d, want world size %d", len(send), world)
	}

	recv := make([]int64, world)
	recv[self] = send[self]

	sendReqs := make([]Request, 0, world-1)
	for p := 0; p < world; p++ {
		if p == self {
			continue
		}
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(send[p]))
		req, err := t.ISend(ctx, p, allToAllTag, buf)
		if err != nil {
			return nil, err
		}
		sendReqs = append(sendReqs, req)
	}

	type pending struct {
		peer int
		req  Request
	}
	recvReqs := make([]pending, 0, world-1)
	for p := 0; p < world; p++ {
		if p == self {
			continue
		}
		req, err := t.IRecv(ctx, p, allToAllTag)
		if err != nil {
			return nil, err
		}
		recvReqs = append(recvReqs, pending{peer: p, req: req})
	}

	for _, req := range sendReqs {
		if _, err := req.Wait(ctx); err != nil {
			return nil, err
		}
	}
	for _, pr := range recvReqs {
		data, err := pr.req.Wait(ctx)
		if err != nil {
			return nil, err
		}
		recv[pr.peer] = int64(binary.LittleEndian.Uint64(data))
	}
	return recv, nil
}
