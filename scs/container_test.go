package scs

import (
	"context"
	"sync"
	"testing"

	"github.com/launix-de/pscs/hcs"
)

func testSchema() hcs.Schema {
	return hcs.Schema{hcs.Scalar[float64]("mass")}
}

// S1: E=5, N=20, uniform counts (each 4), C=4, sigma=1, V=8.
func newS1(t *testing.T) *Container {
	t.Helper()
	counts := []int{4, 4, 4, 4, 4}
	c, err := New(4, 1, 8, 5, 20, counts, nil, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestS1Layout(t *testing.T) {
	c := newS1(t)
	if c.layout.NumChunks != 2 {
		t.Fatalf("num_chunks = %d, want 2", c.layout.NumChunks)
	}
	if c.layout.ChunkWidths[0] != 4 || c.layout.ChunkWidths[1] != 4 {
		t.Fatalf("chunk_widths = %v, want [4 4]", c.layout.ChunkWidths)
	}
	if c.layout.NumSlices != 2 {
		t.Fatalf("num_slices = %d, want 2", c.layout.NumSlices)
	}
	if c.layout.Capacity != 32 {
		t.Fatalf("capacity = %d, want 32", c.layout.Capacity)
	}
	ones := 0
	for _, m := range c.mask {
		ones += int(m)
	}
	if ones != 20 {
		t.Fatalf("mask ones = %d, want 20", ones)
	}
	for r := 5; r < 8; r++ {
		if c.layout.RowToElement[r] != r {
			t.Fatalf("padding row %d should self-point", r)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(0, 1, 8, 5, 20, []int{4, 4, 4, 4, 4}, nil, testSchema()); err == nil {
		t.Fatal("expected error for C=0")
	}
	if _, err := New(4, 1, 8, 5, 21, []int{4, 4, 4, 4, 4}, nil, testSchema()); err == nil {
		t.Fatal("expected error for count mismatch")
	}
}

func TestForEachParticleCoverage(t *testing.T) {
	c := newS1(t)
	visited := 0
	live := 0
	var mu sync.Mutex
	err := c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		mu.Lock()
		defer mu.Unlock()
		visited++
		if mask == 1 {
			live++
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if visited != c.layout.Capacity {
		t.Fatalf("visited %d slots, want %d", visited, c.layout.Capacity)
	}
	if live != 20 {
		t.Fatalf("live slots = %d, want 20", live)
	}
}

func TestColumnWritesVisibleAfterIteration(t *testing.T) {
	c := newS1(t)
	view := Column[float64](c, 0)
	err := c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask == 1 {
			view.Set(slotIndex, float64(slotIndex))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	v, err := view.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if v != 1 {
		t.Fatalf("slot 1 = %v, want 1", v)
	}
}

func TestUseAfterFree(t *testing.T) {
	c := newS1(t)
	view := Column[float64](c, 0)
	newElement := make([]int, c.layout.Capacity)
	for i := range newElement {
		newElement[i] = -1
	}
	if err := c.Rebuild(context.Background(), newElement, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := view.Get(0); err == nil {
		t.Fatal("expected use-after-free error on stale view")
	}
}
