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

// Package checkpoint adds optional, operationally-triggered snapshotting on
// top of an SCS container: none of scs.Container's own mutators ever call
// into this package, so the container's "no persisted state" invariant holds
// for every normal rebuild/migrate. A snapshot is only ever taken or restored
// because something outside the container asked for it.
package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"

	"github.com/launix-de/pscs/hcs"
	"github.com/launix-de/pscs/layout"
	"github.com/launix-de/pscs/scs"
)

const magic uint32 = 0x70534353 // "pSCS"
const formatVersion uint8 = 1

// Snapshot is a point-in-time capture of a container's layout, mask, gid
// map, and column contents, sufficient to reconstruct an equivalent
// container given the same compile-time schema.
type Snapshot struct {
	InstanceID   uuid.UUID
	C, Sigma, V  int
	NumElements  int
	NumParticles int
	Layout       layout.Table
	Mask         []uint8
	Gids         []int64 // nil if the container carries no gid map
	Columns      [][]byte
}

// Backend persists and retrieves named snapshot blobs. FileBackend and
// S3Backend are the two realizations.
type Backend interface {
	WriteSnapshot(name string, data []byte) error
	ReadSnapshot(name string) ([]byte, error)
}

// Capture reads every live and padding slot of c's current store into a
// Snapshot. c is not locked for the duration beyond the individual accessor
// calls, so a concurrent Rebuild/Migrate invalidates the result the same way
// it invalidates a ColumnView.
func Capture(c *scs.Container) (*Snapshot, error) {
	store := c.RawStore()
	capacity := c.Capacity()

	indices := make([]int, capacity)
	for i := range indices {
		indices[i] = i
	}

	cols := make([][]byte, len(store.Columns))
	for i, col := range store.Columns {
		data, err := col.EncodeIndices(indices)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: capture column %d: %w", i, err)
		}
		cols[i] = data
	}

	var gids []int64
	if gm := c.GidMap(); gm != nil {
		gids = make([]int64, c.NumElements())
		for e := range gids {
			gids[e] = gm.ElementToGid(e)
		}
	}

	return &Snapshot{
		InstanceID:   c.InstanceID,
		NumElements:  c.NumElements(),
		NumParticles: c.NumParticles(),
		Mask:         append([]uint8(nil), c.Mask()...),
		Gids:         gids,
		Columns:      cols,
		Layout:       c.Layout(),
	}, nil
}

// Restore rebuilds a container from a snapshot against the given schema,
// which must match the schema Capture was called with (column count, order,
// and types). Capture does not fill the Snapshot's C/Sigma/V fields and
// Encode does not serialize them, so the originating container's
// construction parameters are passed explicitly.
func Restore(snap *Snapshot, c, sigmaBand, v int, schema hcs.Schema) (*scs.Container, error) {
	if len(snap.Columns) != len(schema) {
		return nil, fmt.Errorf("checkpoint: restore: snapshot has %d columns, schema has %d", len(snap.Columns), len(schema))
	}
	store := hcs.New(schema, snap.Layout.Capacity)
	for i, col := range store.Columns {
		if err := col.DecodeInto(snap.Columns[i]); err != nil {
			return nil, fmt.Errorf("checkpoint: restore column %d: %w", i, err)
		}
	}
	return scs.Restore(c, sigmaBand, v, snap.NumElements, snap.NumParticles, snap.Layout, store,
		append([]uint8(nil), snap.Mask...), snap.Gids, schema)
}

// Encode serializes a Snapshot to a compact binary framing: a fixed header
// (magic, version, instance id, element/particle counts, layout table as a
// length-prefixed gob blob), the mask bytes, an optional gid vector, and one
// length-prefixed block per column — the whole thing then compressed as one
// lz4 stream, so a snapshot is stored as one object by the file and S3
// backends.
func Encode(snap *Snapshot) ([]byte, error) {
	var raw bytes.Buffer
	if err := binary.Write(&raw, binary.LittleEndian, magic); err != nil {
		return nil, err
	}
	if err := raw.WriteByte(formatVersion); err != nil {
		return nil, err
	}
	raw.Write(snap.InstanceID[:])
	if err := binary.Write(&raw, binary.LittleEndian, uint64(snap.NumElements)); err != nil {
		return nil, err
	}
	if err := binary.Write(&raw, binary.LittleEndian, uint64(snap.NumParticles)); err != nil {
		return nil, err
	}

	layoutBlob, err := layout.Encode(snap.Layout)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: encode layout: %w", err)
	}
	if err := writeBlock(&raw, layoutBlob); err != nil {
		return nil, err
	}
	if err := writeBlock(&raw, snap.Mask); err != nil {
		return nil, err
	}

	hasGids := uint8(0)
	if snap.Gids != nil {
		hasGids = 1
	}
	if err := raw.WriteByte(hasGids); err != nil {
		return nil, err
	}
	if hasGids == 1 {
		gidBuf := make([]byte, 8*len(snap.Gids))
		for i, g := range snap.Gids {
			binary.LittleEndian.PutUint64(gidBuf[i*8:], uint64(g))
		}
		if err := writeBlock(&raw, gidBuf); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&raw, binary.LittleEndian, uint64(len(snap.Columns))); err != nil {
		return nil, err
	}
	for _, col := range snap.Columns {
		if err := writeBlock(&raw, col); err != nil {
			return nil, err
		}
	}

	var compressed bytes.Buffer
	zw := lz4.NewWriter(&compressed)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		return nil, fmt.Errorf("checkpoint: lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("checkpoint: lz4 compress: %w", err)
	}
	return compressed.Bytes(), nil
}

// Decode is Encode's inverse.
func Decode(data []byte) (*Snapshot, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: lz4 decompress: %w", err)
	}
	r := bytes.NewReader(raw)

	var gotMagic uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("checkpoint: bad magic %#x", gotMagic)
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("checkpoint: unsupported format version %d", version)
	}

	snap := &Snapshot{}
	if _, err := io.ReadFull(r, snap.InstanceID[:]); err != nil {
		return nil, err
	}
	var numElements, numParticles uint64
	if err := binary.Read(r, binary.LittleEndian, &numElements); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &numParticles); err != nil {
		return nil, err
	}
	snap.NumElements = int(numElements)
	snap.NumParticles = int(numParticles)

	layoutBlob, err := readBlock(r)
	if err != nil {
		return nil, err
	}
	snap.Layout, err = layout.Decode(layoutBlob)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: decode layout: %w", err)
	}

	mask, err := readBlock(r)
	if err != nil {
		return nil, err
	}
	snap.Mask = mask

	hasGids, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if hasGids == 1 {
		gidBuf, err := readBlock(r)
		if err != nil {
			return nil, err
		}
		snap.Gids = make([]int64, len(gidBuf)/8)
		for i := range snap.Gids {
			snap.Gids[i] = int64(binary.LittleEndian.Uint64(gidBuf[i*8:]))
		}
	}

	var numCols uint64
	if err := binary.Read(r, binary.LittleEndian, &numCols); err != nil {
		return nil, err
	}
	snap.Columns = make([][]byte, numCols)
	for i := range snap.Columns {
		blk, err := readBlock(r)
		if err != nil {
			return nil, err
		}
		snap.Columns[i] = blk
	}
	return snap, nil
}

func writeBlock(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readBlock(r io.Reader) ([]byte, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
