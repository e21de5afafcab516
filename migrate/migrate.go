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

// Package migrate implements cross-rank particle movement atop an SCS
// container and a message transport: particles that change owning rank are
// shipped to their new rank's container and folded in via rebuild.
package migrate

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/launix-de/pscs/hcs"
	"github.com/launix-de/pscs/scs"
	"github.com/launix-de/pscs/scserr"
	"github.com/launix-de/pscs/transport"
)

// Migrator drives one container's share of a distributed migration round.
type Migrator struct {
	Container *scs.Container
	Transport transport.Transport
	Logger    *slog.Logger
}

// New returns a Migrator for c routed through t.
func New(c *scs.Container, t transport.Transport) *Migrator {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{Container: c, Transport: t, Logger: logger}
}

// Migrate reassigns every live particle to newElement[slot] and
// newRank[slot], then folds the result into the container via Rebuild.
// newElement holds local element ids of this rank: a particle that stays is
// rebuilt at that element, and a particle that leaves is sent with that
// element's global id, which the receiving rank resolves through its own gid
// map. No partial state is
// observable after Migrate returns: either the rebuild with the newly
// arrived particles completed, or an error is returned and the container is
// untouched.
func (m *Migrator) Migrate(ctx context.Context, newElement, newRank []int) error {
	c := m.Container
	t := m.Transport
	self := t.SelfRank()
	world := t.WorldSize()
	gids := c.GidMap()
	if gids == nil {
		return fmt.Errorf("%w: migrate requires a global id map", scserr.ErrInvalidConfig)
	}

	capacity := c.Capacity()
	if len(newElement) != capacity || len(newRank) != capacity {
		return fmt.Errorf("%w: newElement/newRank must be sized to capacity %d", scserr.ErrInvalidConfig, capacity)
	}

	// Step 1: per-destination-rank outgoing counts, then all-to-all.
	liveSlots, err := liveSlotIndices(ctx, c)
	if err != nil {
		return err
	}

	sendCounts := make([]int64, world)
	for _, slot := range liveSlots {
		r := newRank[slot]
		if r != self {
			sendCounts[r]++
		}
	}
	recvCounts, err := t.AllToAll(ctx, sendCounts)
	if err != nil {
		return fmt.Errorf("%w: %v", scserr.ErrTransportFailure, err)
	}

	sendOffset := make([]int64, world)
	recvOffset := make([]int64, world)
	var npSend, npRecv int64
	for p := 0; p < world; p++ {
		sendOffset[p] = npSend
		npSend += sendCounts[p]
		recvOffset[p] = npRecv
		npRecv += recvCounts[p]
	}

	// Step 2: scatter outgoing particles into send buffers.
	schema := c.Schema()
	sendGids := make([]int64, npSend)
	sendStore := hcs.New(schema, int(npSend))
	cursor := make([]atomic.Int64, world)
	for p := 0; p < world; p++ {
		cursor[p].Store(sendOffset[p])
	}
	outgoing := make(map[int]bool, npSend) // slot -> departed, for step 7
	for _, slot := range liveSlots {
		r := newRank[slot]
		if r == self {
			continue
		}
		idx := int(cursor[r].Add(1) - 1)
		sendGids[idx] = gids.ElementToGid(newElement[slot])
		sendStore.CopySlot(idx, c.RawStore(), slot)
		outgoing[slot] = true
	}

	// Step 3: receive buffers.
	recvGids := make([]int64, npRecv)
	recvStore := hcs.New(schema, int(npRecv))

	// Step 4-5: post sends/recvs per peer with non-zero traffic, wait all.
	if err := exchange(ctx, t, self, world, schema, sendOffset, sendCounts, sendGids, sendStore,
		recvOffset, recvCounts, recvGids, recvStore); err != nil {
		return fmt.Errorf("%w: %v", scserr.ErrTransportFailure, err)
	}

	// Step 6: translate received global ids to local elements.
	recvLocalElements := make([]int, npRecv)
	for i, gid := range recvGids {
		el, ok := gids.GidToElement(gid)
		if !ok {
			return fmt.Errorf("%w: gid %d", scserr.ErrUnknownGid, gid)
		}
		recvLocalElements[i] = el
	}

	// Step 7: mark departed slots as drops.
	rebuildNewElement := append([]int(nil), newElement...)
	for slot := range outgoing {
		rebuildNewElement[slot] = -1
	}

	// Step 8: fold in via rebuild.
	tail := &scs.Tail{Elements: recvLocalElements, Columns: recvStore}
	if err := c.Rebuild(ctx, rebuildNewElement, tail); err != nil {
		return err
	}

	m.Logger.Info("pscs: migrate complete",
		"instance", c.InstanceID, "rank", self, "sent", npSend, "received", npRecv)
	return nil
}

// liveSlotIndices snapshots the currently-live slot indices via a single
// ForEachParticle pass; it never mutates the container.
func liveSlotIndices(ctx context.Context, c *scs.Container) ([]int, error) {
	var slots []int
	var mu sync.Mutex
	err := c.ForEachParticle(ctx, func(elementID, slotIndex int, mask uint8) {
		if mask == 1 {
			mu.Lock()
			slots = append(slots, slotIndex)
			mu.Unlock()
		}
	})
	return slots, err
}

func exchange(ctx context.Context, t transport.Transport, self, world int, schema hcs.Schema,
	sendOffset, sendCounts []int64, sendGids []int64, sendStore *hcs.Store,
	recvOffset, recvCounts []int64, recvGids []int64, recvStore *hcs.Store) error {

	var sendReqs, recvReqs []transport.Request

	for p := 0; p < world; p++ {
		if p == self || sendCounts[p] == 0 {
			continue
		}
		indices := rangeInts(int(sendOffset[p]), int(sendCounts[p]))
		gidBuf := encodeInt64s(sendGids[sendOffset[p] : sendOffset[p]+sendCounts[p]])
		req, err := t.ISend(ctx, p, 0, gidBuf)
		if err != nil {
			return err
		}
		sendReqs = append(sendReqs, req)
		for k, col := range sendStore.Columns {
			buf, err := col.EncodeIndices(indices)
			if err != nil {
				return err
			}
			req, err := t.ISend(ctx, p, k+1, buf)
			if err != nil {
				return err
			}
			sendReqs = append(sendReqs, req)
		}
	}

	type recvJob struct {
		peer   int
		offset int64
		count  int64
	}
	var jobs []recvJob
	for p := 0; p < world; p++ {
		if p == self || recvCounts[p] == 0 {
			continue
		}
		jobs = append(jobs, recvJob{peer: p, offset: recvOffset[p], count: recvCounts[p]})
		req, err := t.IRecv(ctx, p, 0)
		if err != nil {
			return err
		}
		recvReqs = append(recvReqs, req)
		for k := range schema {
			req, err := t.IRecv(ctx, p, k+1)
			if err != nil {
				return err
			}
			recvReqs = append(recvReqs, req)
		}
	}

	for _, req := range sendReqs {
		if _, err := req.Wait(ctx); err != nil {
			return err
		}
	}

	reqIdx := 0
	for _, job := range jobs {
		gidData, err := recvReqs[reqIdx].Wait(ctx)
		reqIdx++
		if err != nil {
			return err
		}
		vals := decodeInt64s(gidData)
		copy(recvGids[job.offset:job.offset+job.count], vals)

		for k, col := range recvStore.Columns {
			data, err := recvReqs[reqIdx].Wait(ctx)
			reqIdx++
			if err != nil {
				return err
			}
			if err := col.DecodeSliceInto(data, int(job.offset), int(job.count)); err != nil {
				return fmt.Errorf("column %d: %w", k, err)
			}
		}
	}
	return nil
}

func rangeInts(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func encodeInt64s(vals []int64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return buf
}

func decodeInt64s(data []byte) []int64 {
	out := make([]int64, len(data)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return out
}

