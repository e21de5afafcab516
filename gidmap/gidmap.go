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

// Package gidmap implements the global-element-id lookup table: a read-only,
// deterministically ordered bidirectional map between global element ids and
// local element indices, rebuilt only at construction or when the element
// set itself changes.
package gidmap

import (
	"fmt"

	"github.com/google/btree"
)

type entry struct {
	gid     int64
	element int
}

// Map is read-only during iteration: callers must not mutate it while a
// for_each_particle or migrate is in flight.
type Map struct {
	byGid     *btree.BTreeG[entry]
	byElement []int64
}

// New builds a Map from a length-numElements slice of global ids. Returns an
// error if a gid repeats.
func New(numElements int, gids []int64) (*Map, error) {
	m := &Map{
		byGid:     btree.NewG(32, func(a, b entry) bool { return a.gid < b.gid }),
		byElement: make([]int64, numElements),
	}
	for e, g := range gids {
		m.byElement[e] = g
		if _, exists := m.byGid.ReplaceOrInsert(entry{gid: g, element: e}); exists {
			return nil, fmt.Errorf("gidmap: duplicate global id %d", g)
		}
	}
	return m, nil
}

// ElementToGid returns element e's global id.
func (m *Map) ElementToGid(e int) int64 {
	return m.byElement[e]
}

// GidToElement resolves a global id to its local element index.
func (m *Map) GidToElement(gid int64) (int, bool) {
	found, ok := m.byGid.Get(entry{gid: gid})
	if !ok {
		return 0, false
	}
	return found.element, true
}

// Ascend visits every (gid, element) pair in ascending gid order, stopping
// early when fn returns false.
func (m *Map) Ascend(fn func(gid int64, element int) bool) {
	m.byGid.Ascend(func(e entry) bool {
		return fn(e.gid, e.element)
	})
}

// Len returns the number of mapped elements.
func (m *Map) Len() int { return len(m.byElement) }
