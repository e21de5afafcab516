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

// Package refschema is the reference particle schema used by demos and
// integration tests: a plain float64 scalar, a fixed-size float64 vector,
// and a shopspring/decimal.Decimal scalar, to exercise a column type whose
// copy/encode path is not a flat machine word.
package refschema

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"

	"github.com/launix-de/pscs/hcs"
)

// Column indices into Schema().
const (
	Mass     = 0
	Velocity = 1
	Charge   = 2
)

// Schema returns the reference particle layout: mass (scalar float64),
// velocity (3-wide float64 vector), charge (scalar decimal.Decimal).
func Schema() hcs.Schema {
	return hcs.Schema{
		hcs.Scalar[float64]("mass"),
		hcs.Vector[float64]("velocity", 3),
		hcs.Scalar[decimal.Decimal]("charge"),
	}
}

// Sum adds up the scalar values of a float column at the given slot indices.
// Built against golang.org/x/exp/constraints so it works for any real
// scalar type a schema declares, not just float64.
func Sum[T constraints.Float | constraints.Integer](col *hcs.TypedColumn[T], indices []int) T {
	var total T
	for _, idx := range indices {
		total += col.Get(idx)
	}
	return total
}

// TotalCharge sums the charge column over the given slot indices using
// decimal.Decimal's own exact arithmetic rather than floating point.
func TotalCharge(col *hcs.TypedColumn[decimal.Decimal], indices []int) decimal.Decimal {
	total := decimal.Zero
	for _, idx := range indices {
		total = total.Add(col.Get(idx))
	}
	return total
}
