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

// Package sigma groups elements into sigma-sized bands and sorts each band
// by descending particle count, the pre-processing step that gives Sell-C-σ
// its name.
package sigma

import "sort"

// Pair is one (count, element) binding produced by Sort.
type Pair struct {
	Count   int
	Element int
}

// Sort groups counts into contiguous bands of size sigma (the final band
// may be shorter) and sorts each band by descending count, ties broken by
// ascending element id. sigma <= 1 disables sorting; sigma >= len(counts)
// sorts globally. Sort is pure: it never mutates counts.
func Sort(counts []int, sigma int) []Pair {
	e := len(counts)
	pairs := make([]Pair, e)
	for i, c := range counts {
		pairs[i] = Pair{Count: c, Element: i}
	}
	if sigma < 1 {
		sigma = 1
	}
	for start := 0; start < e; start += sigma {
		end := start + sigma
		if end > e {
			end = e
		}
		band := pairs[start:end]
		sort.SliceStable(band, func(i, j int) bool {
			if band[i].Count != band[j].Count {
				return band[i].Count > band[j].Count
			}
			return band[i].Element < band[j].Element
		})
	}
	return pairs
}
