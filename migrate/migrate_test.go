package migrate

import (
	"context"
	"sync"
	"testing"

	"github.com/launix-de/pscs/hcs"
	"github.com/launix-de/pscs/scs"
	"github.com/launix-de/pscs/transport"
)

func schemaWithMass() hcs.Schema {
	return hcs.Schema{hcs.Scalar[float64]("mass")}
}

func stamp(t *testing.T, c *scs.Container, signature float64) {
	t.Helper()
	view := scs.Column[float64](c, 0)
	err := c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask == 1 {
			view.Set(slotIndex, signature+float64(elementID))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

// buildDestination produces (newElement, newRank) vectors sized to c's
// capacity: every live slot keeps its current element but moves to
// destRank; dead slots are left zeroed (ignored by Migrate).
func buildDestination(t *testing.T, c *scs.Container, destRank int) ([]int, []int) {
	t.Helper()
	newElement := make([]int, c.Capacity())
	newRank := make([]int, c.Capacity())
	err := c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask == 1 {
			newElement[slotIndex] = elementID
			newRank[slotIndex] = destRank
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	return newElement, newRank
}

// S6: two ranks, each with S1-shaped state, migrate swapping ranks of every
// particle; each rank's post-state has exactly the other's original
// particle multiset (matched by gid, here proxied by a per-rank mass
// signature keyed on element id).
func TestMigrateSwap(t *testing.T) {
	counts := []int{4, 4, 4, 4, 4}
	gids := []int64{100, 101, 102, 103, 104}

	c0, err := scs.New(4, 1, 8, 5, 20, counts, gids, schemaWithMass())
	if err != nil {
		t.Fatal(err)
	}
	c1, err := scs.New(4, 1, 8, 5, 20, counts, gids, schemaWithMass())
	if err != nil {
		t.Fatal(err)
	}
	stamp(t, c0, 0)
	stamp(t, c1, 1000)

	ranks := transport.NewLocalCluster(2)
	m0 := New(c0, ranks[0])
	m1 := New(c1, ranks[1])

	ne0, nr0 := buildDestination(t, c0, 1)
	ne1, nr1 := buildDestination(t, c1, 0)

	var wg sync.WaitGroup
	var err0, err1 error
	wg.Add(2)
	go func() { defer wg.Done(); err0 = m0.Migrate(context.Background(), ne0, nr0) }()
	go func() { defer wg.Done(); err1 = m1.Migrate(context.Background(), ne1, nr1) }()
	wg.Wait()

	if err0 != nil {
		t.Fatalf("rank0 migrate: %v", err0)
	}
	if err1 != nil {
		t.Fatalf("rank1 migrate: %v", err1)
	}

	if got := c0.NumParticles(); got != 20 {
		t.Fatalf("c0 num_particles = %d, want 20", got)
	}
	if got := c1.NumParticles(); got != 20 {
		t.Fatalf("c1 num_particles = %d, want 20", got)
	}

	assertSignature(t, c0, 1000)
	assertSignature(t, c1, 0)
}

func assertSignature(t *testing.T, c *scs.Container, signature float64) {
	t.Helper()
	view := scs.Column[float64](c, 0)
	seen := 0
	var mu sync.Mutex
	err := c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask == 0 {
			return
		}
		mu.Lock()
		seen++
		mu.Unlock()
		v, err := view.Get(slotIndex)
		if err != nil {
			t.Fatal(err)
		}
		if v != signature+float64(elementID) {
			t.Fatalf("slot %d (element %d): mass = %v, want %v", slotIndex, elementID, v, signature+float64(elementID))
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != 20 {
		t.Fatalf("saw %d live particles, want 20", seen)
	}
}
