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

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Column is the type-erased vtable every attribute column satisfies. Slot
// indices are raw; live/dead bookkeeping lives in the SCS mask, not here.
type Column interface {
	// Len returns the column's slot capacity.
	Len() int
	// CopySlot copies the attribute value(s) of slot srcIndex in src into
	// slot dstIndex of the receiver.
	CopySlot(dstIndex int, src Column, srcIndex int)
	// Release frees the column's backing storage.
	Release()
	// EncodeIndices serializes the values held at the given slot indices,
	// in order, for transport or checkpointing.
	EncodeIndices(indices []int) ([]byte, error)
	// DecodeInto overwrites the receiver's entire backing array from a
	// buffer produced by EncodeIndices (on a column of matching length).
	DecodeInto(data []byte) error
	// DecodeSliceInto decodes a buffer produced by EncodeIndices over count
	// slots and writes it starting at slot offset, leaving the rest of the
	// column untouched. Used to fold one peer's contribution into a larger,
	// pre-sized receive column.
	DecodeSliceInto(data []byte, offset, count int) error
}

// TypedColumn is the generic realization of Column for an element type T of
// fixed arity per slot.
type TypedColumn[T any] struct {
	data  []T
	arity int
}

func (c *TypedColumn[T]) Len() int { return len(c.data) / c.arity }

func (c *TypedColumn[T]) CopySlot(dstIndex int, src Column, srcIndex int) {
	s, ok := src.(*TypedColumn[T])
	if !ok {
		panic(fmt.Sprintf("hcs: CopySlot type mismatch: %T into %T", src, c))
	}
	copy(c.data[dstIndex*c.arity:(dstIndex+1)*c.arity], s.data[srcIndex*s.arity:(srcIndex+1)*s.arity])
}

func (c *TypedColumn[T]) Release() {
	c.data = nil
}

func (c *TypedColumn[T]) EncodeIndices(indices []int) ([]byte, error) {
	vals := make([]T, 0, len(indices)*c.arity)
	for _, idx := range indices {
		vals = append(vals, c.data[idx*c.arity:(idx+1)*c.arity]...)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vals); err != nil {
		return nil, fmt.Errorf("hcs: encode column: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *TypedColumn[T]) DecodeInto(data []byte) error {
	var vals []T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&vals); err != nil {
		return fmt.Errorf("hcs: decode column: %w", err)
	}
	if len(vals) != len(c.data) {
		return fmt.Errorf("hcs: decode column: got %d values, want %d", len(vals), len(c.data))
	}
	copy(c.data, vals)
	return nil
}

func (c *TypedColumn[T]) DecodeSliceInto(data []byte, offset, count int) error {
	var vals []T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&vals); err != nil {
		return fmt.Errorf("hcs: decode column slice: %w", err)
	}
	if len(vals) != count*c.arity {
		return fmt.Errorf("hcs: decode column slice: got %d values, want %d", len(vals), count*c.arity)
	}
	copy(c.data[offset*c.arity:(offset+count)*c.arity], vals)
	return nil
}

// Get returns a copy of slot index's value (arity == 1 columns).
func (c *TypedColumn[T]) Get(index int) T {
	return c.data[index*c.arity]
}

// Set overwrites slot index's value (arity == 1 columns).
func (c *TypedColumn[T]) Set(index int, v T) {
	c.data[index*c.arity] = v
}

// GetVec returns a copy of the arity-wide value at slot index.
func (c *TypedColumn[T]) GetVec(index int) []T {
	out := make([]T, c.arity)
	copy(out, c.data[index*c.arity:(index+1)*c.arity])
	return out
}

// SetVec overwrites the arity-wide value at slot index.
func (c *TypedColumn[T]) SetVec(index int, v []T) {
	if len(v) != c.arity {
		panic(fmt.Sprintf("hcs: SetVec arity mismatch: got %d, want %d", len(v), c.arity))
	}
	copy(c.data[index*c.arity:(index+1)*c.arity], v)
}

// Arity returns the number of T values packed per slot.
func (c *TypedColumn[T]) Arity() int { return c.arity }
