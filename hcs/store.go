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

package hcs

// Store owns a tuple of equal-length columns, one per schema attribute.
type Store struct {
	Schema  Schema
	Columns []Column
	Length  int
}

// New allocates a store of the given schema and per-column slot capacity.
func New(schema Schema, length int) *Store {
	cols := make([]Column, len(schema))
	for i, d := range schema {
		cols[i] = d.New(length)
	}
	return &Store{Schema: schema, Columns: cols, Length: length}
}

// CopySlot copies all attribute values of srcIndex in src into dstIndex of
// the receiver.
func (s *Store) CopySlot(dstIndex int, src *Store, srcIndex int) {
	for i, col := range s.Columns {
		col.CopySlot(dstIndex, src.Columns[i], srcIndex)
	}
}

// Column returns the typed column at schema index i, panicking on a schema
// mismatch. Views are only valid until the owning container's next mutation.
func Column[T any](s *Store, i int) *TypedColumn[T] {
	return s.Columns[i].(*TypedColumn[T])
}

// Release frees every column's backing storage.
func (s *Store) Release() {
	for _, col := range s.Columns {
		col.Release()
	}
	s.Columns = nil
	s.Length = 0
}
