package layout

import (
	"testing"

	"github.com/launix-de/pscs/sigma"
)

func TestBuildS1(t *testing.T) {
	counts := []int{4, 4, 4, 4, 4}
	pairs := sigma.Sort(counts, 1)
	tbl := Build(pairs, 4, 8)

	if tbl.NumChunks != 2 {
		t.Fatalf("NumChunks = %d, want 2", tbl.NumChunks)
	}
	if tbl.ChunkWidths[0] != 4 || tbl.ChunkWidths[1] != 4 {
		t.Fatalf("ChunkWidths = %v, want [4 4]", tbl.ChunkWidths)
	}
	if tbl.NumSlices != 2 {
		t.Fatalf("NumSlices = %d, want 2", tbl.NumSlices)
	}
	if tbl.Capacity != 32 {
		t.Fatalf("Capacity = %d, want 32", tbl.Capacity)
	}
	for r := 5; r < 8; r++ {
		if tbl.RowToElement[r] != r {
			t.Fatalf("padding row %d = %d, want self-pointing %d", r, tbl.RowToElement[r], r)
		}
	}
}

func TestBuildS2(t *testing.T) {
	counts := []int{10, 4, 3, 2, 1}
	pairs := sigma.Sort(counts, 5)
	for i, want := range []int{0, 1, 2, 3, 4} {
		if pairs[i].Element != want {
			t.Fatalf("sorted element[%d] = %d, want %d", i, pairs[i].Element, want)
		}
	}
	tbl := Build(pairs, 4, 4)
	if tbl.ChunkWidths[0] != 10 {
		t.Fatalf("chunk0 width = %d, want 10", tbl.ChunkWidths[0])
	}
	if tbl.ChunkSliceCount[0] != 3 {
		t.Fatalf("chunk0 slices = %d, want 3", tbl.ChunkSliceCount[0])
	}
	widths := []int{}
	for s := tbl.ChunkSliceStart[0]; s < tbl.ChunkSliceStart[0]+tbl.ChunkSliceCount[0]; s++ {
		widths = append(widths, tbl.SliceWidth(s))
	}
	if widths[0] != 4 || widths[1] != 4 || widths[2] != 2 {
		t.Fatalf("chunk0 slice widths = %v, want [4 4 2]", widths)
	}
	if tbl.ChunkWidths[1] != 1 || tbl.ChunkSliceCount[1] != 1 {
		t.Fatalf("chunk1 width/slices = %d/%d, want 1/1", tbl.ChunkWidths[1], tbl.ChunkSliceCount[1])
	}
}

func TestBuildZeroWidthChunkHasOneSlice(t *testing.T) {
	counts := []int{20, 0, 0, 0, 0}
	pairs := sigma.Sort(counts, 1)
	tbl := Build(pairs, 4, 8)
	if tbl.ChunkSliceCount[1] != 1 {
		t.Fatalf("zero-width chunk slices = %d, want 1", tbl.ChunkSliceCount[1])
	}
	if tbl.SliceWidth(tbl.ChunkSliceStart[1]) != 8 {
		t.Fatalf("zero-width chunk slice width = %d, want V=8", tbl.SliceWidth(tbl.ChunkSliceStart[1]))
	}
}

func TestRowElementBijection(t *testing.T) {
	counts := []int{3, 1, 4, 1, 5, 9, 2, 6}
	pairs := sigma.Sort(counts, 3)
	tbl := Build(pairs, 3, 4)
	seen := make(map[int]bool)
	for r := 0; r < tbl.NumElements; r++ {
		e := tbl.RowToElement[r]
		if seen[e] {
			t.Fatalf("element %d mapped by more than one row", e)
		}
		seen[e] = true
	}
	if len(seen) != tbl.NumElements {
		t.Fatalf("row_to_element not a bijection on live rows: saw %d of %d", len(seen), tbl.NumElements)
	}
}
