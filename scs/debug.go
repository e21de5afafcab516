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

package scs

import (
	"fmt"
	"io"
	"strings"

	units "github.com/docker/go-units"
)

// DebugPrint dumps chunks, their element (and gid) contents, and per-slice
// masks, for interactive inspection. Not part of the performance-critical
// path; allocates freely.
func (c *Container) DebugPrint(w io.Writer) {
	c.mu.Lock()
	tbl := c.layout
	mask := c.mask
	numCols := len(c.schema)
	c.mu.Unlock()

	footprint := int64(tbl.Capacity) * int64(8*numCols+1) // rough: 8 bytes/attr + 1 mask byte
	fmt.Fprintf(w, "container %s: %d elements, %d particles, %d chunks, %d slices, capacity %d (%s)\n",
		c.InstanceID, c.numElements, c.numParticles, tbl.NumChunks, tbl.NumSlices, tbl.Capacity,
		units.BytesSize(float64(footprint)))

	for ch := 0; ch < tbl.NumChunks; ch++ {
		fmt.Fprintf(w, "chunk %d (width %d):\n", ch, tbl.ChunkWidths[ch])
		for rowLocal := 0; rowLocal < tbl.C; rowLocal++ {
			row := ch*tbl.C + rowLocal
			elem := tbl.RowToElement[row]
			var gidStr string
			if c.gids != nil && row < tbl.NumElements {
				gidStr = fmt.Sprintf(" gid=%d", c.gids.ElementToGid(elem))
			}
			fmt.Fprintf(w, "  row %d -> element %d%s: ", row, elem, gidStr)
			var b strings.Builder
			for s := tbl.ChunkSliceStart[ch]; s < tbl.ChunkSliceStart[ch]+tbl.ChunkSliceCount[ch]; s++ {
				width := tbl.SliceWidth(s)
				for col := 0; col < width; col++ {
					if mask[tbl.Slot(s, col, rowLocal)] == 1 {
						b.WriteByte('1')
					} else {
						b.WriteByte('0')
					}
				}
				b.WriteByte('|')
			}
			fmt.Fprintln(w, b.String())
		}
	}
}
