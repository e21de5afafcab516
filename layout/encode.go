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

package layout

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode serializes a Table for checkpointing. A Table is plain slices of
// ints, so gob round-trips it without any custom framing.
func Encode(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return nil, fmt.Errorf("layout: encode table: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode is Encode's inverse.
func Decode(data []byte) (Table, error) {
	var t Table
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("layout: decode table: %w", err)
	}
	return t, nil
}
