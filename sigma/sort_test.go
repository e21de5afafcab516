package sigma

import "testing"

func TestSortBandsNonIncreasing(t *testing.T) {
	counts := []int{10, 4, 3, 2, 1}
	pairs := Sort(counts, 5)
	want := []int{0, 1, 2, 3, 4}
	for i, p := range pairs {
		if p.Element != want[i] {
			t.Fatalf("pair[%d].Element = %d, want %d", i, p.Element, want[i])
		}
	}
}

func TestSortSigmaOneDisablesSort(t *testing.T) {
	counts := []int{1, 5, 2, 9}
	pairs := Sort(counts, 1)
	for i, p := range pairs {
		if p.Element != i || p.Count != counts[i] {
			t.Fatalf("sigma=1 must preserve order, got %+v at %d", p, i)
		}
	}
}

func TestSortBandLocality(t *testing.T) {
	counts := []int{1, 9, 2, 8, 3, 7}
	pairs := Sort(counts, 2)
	for b := 0; b < len(pairs); b += 2 {
		band := pairs[b:min(b+2, len(pairs))]
		for i := 1; i < len(band); i++ {
			if band[i-1].Count < band[i].Count {
				t.Fatalf("band %d not non-increasing: %+v", b/2, band)
			}
		}
	}
}

func TestSortStableTieBreak(t *testing.T) {
	counts := []int{5, 5, 5}
	pairs := Sort(counts, 3)
	for i, p := range pairs {
		if p.Element != i {
			t.Fatalf("tie-break must be ascending element id, got %+v", pairs)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
