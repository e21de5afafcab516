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

// Package transport declares the message-passing collaborator the Migrator
// needs: all-to-all on fixed-size integers, and non-blocking typed
// point-to-point send/recv with wait-all.
package transport

import "context"

// Request is a posted non-blocking send or receive; Wait blocks until it
// completes and, for a receive, returns the payload.
type Request interface {
	Wait(ctx context.Context) ([]byte, error)
}

// Transport is the abstract message-passing capability migrate consumes.
// Implementations must support concurrent use by multiple goroutines
// posting sends/recvs to distinct (peer, tag) pairs.
type Transport interface {
	SelfRank() int
	WorldSize() int

	// AllToAll exchanges one int64 per peer: send[p] is what self sends to
	// peer p; the result holds what every peer sent to self.
	AllToAll(ctx context.Context, send []int64) ([]int64, error)

	// ISend posts a non-blocking send of payload to peer, tagged tag.
	ISend(ctx context.Context, peer, tag int, payload []byte) (Request, error)
	// IRecv posts a non-blocking receive from peer, tagged tag.
	IRecv(ctx context.Context, peer, tag int) (Request, error)
}
