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

// Package hcs implements the heterogeneous column store: a tuple of parallel,
// equal-length, device-resident columns, one per declared particle attribute.
package hcs

// Descriptor names one attribute column of the schema: its arity (1 for a
// plain scalar, >1 for a fixed-size vector or flattened matrix) and the
// factory that allocates a column of a given slot capacity.
type Descriptor struct {
	Name  string
	Arity int
	New   func(capacity int) Column
}

// Schema is the compile-time-declared ordered list of attribute columns that
// every slot of a store carries.
type Schema []Descriptor

// Scalar declares a single-value-per-slot column of type T.
func Scalar[T any](name string) Descriptor {
	return Descriptor{
		Name:  name,
		Arity: 1,
		New: func(capacity int) Column {
			return &TypedColumn[T]{data: make([]T, capacity), arity: 1}
		},
	}
}

// Vector declares an arity-wide fixed-size vector (or flattened matrix)
// column of element type T.
func Vector[T any](name string, arity int) Descriptor {
	if arity < 1 {
		panic("hcs: vector arity must be >= 1")
	}
	return Descriptor{
		Name:  name,
		Arity: arity,
		New: func(capacity int) Column {
			return &TypedColumn[T]{data: make([]T, capacity*arity), arity: arity}
		},
	}
}

// IndexOf returns the column index of the named attribute, or -1.
func (s Schema) IndexOf(name string) int {
	for i, d := range s {
		if d.Name == name {
			return i
		}
	}
	return -1
}
