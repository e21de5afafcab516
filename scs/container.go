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

// Package scs implements the Sell-C-σ container: it owns a heterogeneous
// column store plus its layout tables, and exposes typed column access,
// parallel iteration, and the two structural mutators (rebuild, migrate).
package scs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/launix-de/pscs/gidmap"
	"github.com/launix-de/pscs/hcs"
	"github.com/launix-de/pscs/layout"
	"github.com/launix-de/pscs/scserr"
	"github.com/launix-de/pscs/sigma"
)

// ParticleFunc is the callable invoked once per slot by ForEachParticle.
// mask is 0 for padding/dead slots, 1 for live ones.
type ParticleFunc func(elementID, slotIndex int, mask uint8)

// Container owns its HCS columns, mask, and layout tables exclusively.
// Column views borrowed from it are valid only until the next mutation.
type Container struct {
	mu sync.Mutex

	c, sigma, v int

	numElements  int
	numParticles int

	schema hcs.Schema
	store  *hcs.Store
	mask   []uint8
	layout layout.Table
	gids   *gidmap.Map

	generation uint64
	InstanceID uuid.UUID

	DebugGenerationChecks bool
	Logger                *slog.Logger
}

// New constructs a container from a per-element particle count vector and
// allocates + fills its HCS and mask. gids may be nil (no global id map).
func New(c, sigmaBand, v, numElements, numParticles int, counts []int, gids []int64, schema hcs.Schema) (*Container, error) {
	if c <= 0 || v <= 0 || sigmaBand <= 0 || len(counts) != numElements {
		return nil, fmt.Errorf("%w: C=%d V=%d sigma=%d len(counts)=%d numElements=%d",
			scserr.ErrInvalidConfig, c, v, sigmaBand, len(counts), numElements)
	}
	sum := 0
	for _, n := range counts {
		sum += n
	}
	if sum != numParticles {
		return nil, fmt.Errorf("%w: sum(counts)=%d numParticles=%d", scserr.ErrCountMismatch, sum, numParticles)
	}

	logger := slog.Default()
	pairs := sigma.Sort(counts, sigmaBand)
	tbl := layout.Build(pairs, c, v)

	store := hcs.New(schema, tbl.Capacity)
	mask := make([]uint8, tbl.Capacity)
	fillMask(tbl, counts, mask)

	var gm *gidmap.Map
	if gids != nil {
		var err error
		gm, err = gidmap.New(numElements, gids)
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("pscs: container constructed",
		"num_elements", numElements, "num_particles", numParticles,
		"num_chunks", tbl.NumChunks, "num_slices", tbl.NumSlices, "capacity", tbl.Capacity)

	return &Container{
		c: c, sigma: sigmaBand, v: v,
		numElements: numElements, numParticles: numParticles,
		schema: schema, store: store, mask: mask, layout: tbl, gids: gm,
		InstanceID:            uuid.New(),
		DebugGenerationChecks: true,
		Logger:                logger,
	}, nil
}

// fillMask marks, for every row's element, the first counts[element] column
// positions of that row live, across whichever slices of the row's chunk
// they fall in.
func fillMask(tbl layout.Table, counts []int, mask []uint8) {
	for s := 0; s < tbl.NumSlices; s++ {
		chunk := tbl.SliceToChunk[s]
		width := tbl.SliceWidth(s)
		colOffset := tbl.SliceColOffset[s]
		for rowLocal := 0; rowLocal < tbl.C; rowLocal++ {
			row := chunk*tbl.C + rowLocal
			if row >= tbl.NumElements {
				continue // padding row: stays all-dead
			}
			elem := tbl.RowToElement[row]
			live := counts[elem] - colOffset
			if live < 0 {
				live = 0
			}
			if live > width {
				live = width
			}
			for col := 0; col < live; col++ {
				mask[tbl.Slot(s, col, rowLocal)] = 1
			}
		}
	}
}

// Restore reconstructs a container directly from an already-built layout,
// store, and mask — the state checkpoint.Restore produces from a captured
// snapshot — bypassing sigma-sort/layout-build since that work is already
// baked into the serialized tables. Used only by the checkpoint package.
func Restore(c, sigmaBand, v, numElements, numParticles int, tbl layout.Table, store *hcs.Store, mask []uint8, gids []int64, schema hcs.Schema) (*Container, error) {
	if c <= 0 || v <= 0 || sigmaBand <= 0 {
		return nil, fmt.Errorf("%w: C=%d V=%d sigma=%d", scserr.ErrInvalidConfig, c, v, sigmaBand)
	}
	var gm *gidmap.Map
	if gids != nil {
		var err error
		gm, err = gidmap.New(numElements, gids)
		if err != nil {
			return nil, err
		}
	}
	return &Container{
		c: c, sigma: sigmaBand, v: v,
		numElements: numElements, numParticles: numParticles,
		schema: schema, store: store, mask: mask, layout: tbl, gids: gm,
		InstanceID:            uuid.New(),
		DebugGenerationChecks: true,
		Logger:                slog.Default(),
	}, nil
}

// NumParticles returns the live particle count.
func (c *Container) NumParticles() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numParticles
}

// NumElements returns the (fixed across rebuild/migrate) element count.
func (c *Container) NumElements() int { return c.numElements }

// Capacity returns the total slot count (live + padding).
func (c *Container) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.Capacity
}

// Generation returns the current mutation generation, bumped by every
// rebuild (and therefore every migrate, which rebuilds internally).
func (c *Container) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// GidMap exposes the read-only global-id lookup table, or nil if the
// container was constructed without global ids.
func (c *Container) GidMap() *gidmap.Map { return c.gids }

// Schema returns the declared attribute schema.
func (c *Container) Schema() hcs.Schema { return c.schema }

// RawStore exposes the container's current backing store for collaborators
// that must CopySlot directly (migrate's send-buffer scatter). The returned
// pointer is only valid until the next mutation, same as a ColumnView.
func (c *Container) RawStore() *hcs.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// Mask exposes the current live/dead mask, indexed by slot. The returned
// slice is only valid until the next mutation.
func (c *Container) Mask() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mask
}

// Layout exposes the current layout table, for collaborators (checkpoint)
// that need to serialize it alongside the columns it describes.
func (c *Container) Layout() layout.Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout
}

// ColumnView is a non-owning, generation-stamped handle onto one attribute
// column. It is valid only until the container's next mutation.
type ColumnView[T any] struct {
	container  *Container
	generation uint64
	col        *hcs.TypedColumn[T]
}

// Column acquires a typed view of attribute i. The view must not be
// retained across a Rebuild/Migrate call.
func Column[T any](c *Container, i int) ColumnView[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ColumnView[T]{container: c, generation: c.generation, col: hcs.Column[T](c.store, i)}
}

func (v ColumnView[T]) checkLive() error {
	if v.container.DebugGenerationChecks && v.container.Generation() != v.generation {
		return scserr.ErrUseAfterFree
	}
	return nil
}

// Get returns slot index's scalar value.
func (v ColumnView[T]) Get(index int) (T, error) {
	var zero T
	if err := v.checkLive(); err != nil {
		return zero, err
	}
	return v.col.Get(index), nil
}

// Set overwrites slot index's scalar value.
func (v ColumnView[T]) Set(index int, val T) error {
	if err := v.checkLive(); err != nil {
		return err
	}
	v.col.Set(index, val)
	return nil
}

// GetVec returns a copy of slot index's arity-wide value.
func (v ColumnView[T]) GetVec(index int) ([]T, error) {
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	return v.col.GetVec(index), nil
}

// SetVec overwrites slot index's arity-wide value.
func (v ColumnView[T]) SetVec(index int, val []T) error {
	if err := v.checkLive(); err != nil {
		return err
	}
	v.col.SetVec(index, val)
	return nil
}

// ForEachParticle invokes f exactly once per slot (live and padding), with
// no ordering guarantee between slots. Writes the callable performs into
// columns become visible to the caller only once ForEachParticle returns.
func (c *Container) ForEachParticle(ctx context.Context, f ParticleFunc) error {
	c.mu.Lock()
	tbl := c.layout
	mask := c.mask
	c.mu.Unlock()

	for s := 0; s < tbl.NumSlices; s++ {
		chunk := tbl.SliceToChunk[s]
		width := tbl.SliceWidth(s)
		sliceIdx := s
		err := runTeams(ctx, tbl.C, func(_ context.Context, rowLocal int) error {
			row := chunk*tbl.C + rowLocal
			elem := tbl.RowToElement[row]
			for col := 0; col < width; col++ {
				slot := tbl.Slot(sliceIdx, col, rowLocal)
				f(elem, slot, mask[slot])
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
