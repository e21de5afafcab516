/*
Copyright (C) 2023  Carl-Philip Hänsch

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

// Package layout builds the Sell-C-σ chunk table: row-to-element mapping,
// chunk widths, vertical slices, and slot offsets, from a sigma-sorted
// element list.
package layout

import "github.com/launix-de/pscs/sigma"

// Table is the full set of tables the Layout Builder produces. Once built it
// is immutable; a rebuild produces a brand new Table rather than mutating
// one in place.
type Table struct {
	C, V int

	NumElements int
	NumChunks   int
	NumRows     int
	ChunkWidths []int // per chunk, max particle count among its rows

	NumSlices       int
	SliceToChunk    []int // per slice, owning chunk
	SliceColOffset  []int // per slice, chunk-local starting column
	SliceOffsets    []int // len NumSlices+1, slot offset where each slice begins
	ChunkSliceStart []int // per chunk, index of its first slice
	ChunkSliceCount []int // per chunk, number of slices

	RowToElement []int // len NumRows; padding rows self-point (row == value)

	Capacity int // SliceOffsets[NumSlices]; length of every HCS column and the mask
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Build runs the Sell-C-σ layout algorithm over sigma-sorted (count,
// element) pairs. C is the chunk size (team width); V is the maximum
// vertical slice width.
func Build(pairs []sigma.Pair, c, v int) Table {
	e := len(pairs)
	numChunks := ceilDiv(e, c)
	numRows := numChunks * c

	rowToElement := make([]int, numRows)
	for r := 0; r < e; r++ {
		rowToElement[r] = pairs[r].Element
	}
	for r := e; r < numRows; r++ {
		rowToElement[r] = r // self-pointing padding
	}

	chunkWidths := make([]int, numChunks)
	for ch := 0; ch < numChunks; ch++ {
		max := 0
		for r := ch * c; r < (ch+1)*c; r++ {
			if r < e && pairs[r].Count > max {
				max = pairs[r].Count
			}
		}
		chunkWidths[ch] = max
	}

	slicesPerChunk := make([]int, numChunks)
	numSlices := 0
	for ch, w := range chunkWidths {
		spc := ceilDiv(w, v)
		if spc < 1 {
			spc = 1
		}
		slicesPerChunk[ch] = spc
		numSlices += spc
	}

	sliceToChunk := make([]int, numSlices)
	sliceColOffset := make([]int, numSlices)
	sliceOffsets := make([]int, numSlices+1)
	chunkSliceStart := make([]int, numChunks)
	chunkSliceCount := make([]int, numChunks)

	idx := 0
	offset := 0
	for ch := 0; ch < numChunks; ch++ {
		w := chunkWidths[ch]
		spc := slicesPerChunk[ch]
		chunkSliceStart[ch] = idx
		chunkSliceCount[ch] = spc
		colOffset := 0
		for s := 0; s < spc; s++ {
			var width int
			if s < spc-1 {
				width = v
			} else {
				rem := w % v
				if rem == 0 {
					width = v
				} else {
					width = rem
				}
			}
			sliceToChunk[idx] = ch
			sliceColOffset[idx] = colOffset
			sliceOffsets[idx] = offset
			offset += width * c
			colOffset += width
			idx++
		}
	}
	sliceOffsets[numSlices] = offset

	return Table{
		C: c, V: v,
		NumElements:     e,
		NumChunks:       numChunks,
		NumRows:         numRows,
		ChunkWidths:     chunkWidths,
		NumSlices:       numSlices,
		SliceToChunk:    sliceToChunk,
		SliceColOffset:  sliceColOffset,
		SliceOffsets:    sliceOffsets,
		ChunkSliceStart: chunkSliceStart,
		ChunkSliceCount: chunkSliceCount,
		RowToElement:    rowToElement,
		Capacity:        offset,
	}
}

// SliceWidth returns the particle-column width of slice s.
func (t Table) SliceWidth(s int) int {
	return (t.SliceOffsets[s+1] - t.SliceOffsets[s]) / t.C
}

// Slot returns the storage slot for column col (0-based within slice s) of
// the row local to chunk t.SliceToChunk[s] at rowLocal in [0, C).
func (t Table) Slot(s, col, rowLocal int) int {
	return t.SliceOffsets[s] + col*t.C + rowLocal
}
