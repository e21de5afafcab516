package checkpoint

import (
	"context"
	"testing"

	"github.com/launix-de/pscs/hcs"
	"github.com/launix-de/pscs/scs"
)

func testSchema() hcs.Schema {
	return hcs.Schema{hcs.Scalar[float64]("mass")}
}

func TestCaptureRestoreRoundTrip(t *testing.T) {
	counts := []int{4, 4, 4, 4, 4}
	gids := []int64{100, 101, 102, 103, 104}
	c, err := scs.New(4, 1, 8, 5, 20, counts, gids, testSchema())
	if err != nil {
		t.Fatal(err)
	}

	view := scs.Column[float64](c, 0)
	err = c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask == 1 {
			view.Set(slotIndex, float64(elementID)*1.5)
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := Capture(c)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Restore(snap, 4, 1, 8, testSchema())
	if err != nil {
		t.Fatal(err)
	}

	if got := restored.NumParticles(); got != 20 {
		t.Fatalf("restored num_particles = %d, want 20", got)
	}
	if got := restored.Capacity(); got != c.Capacity() {
		t.Fatalf("restored capacity = %d, want %d", got, c.Capacity())
	}

	restoredView := scs.Column[float64](restored, 0)
	err = restored.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask != 1 {
			return
		}
		v, err := restoredView.Get(slotIndex)
		if err != nil {
			t.Fatal(err)
		}
		if v != float64(elementID)*1.5 {
			t.Fatalf("slot %d (element %d): mass = %v, want %v", slotIndex, elementID, v, float64(elementID)*1.5)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	counts := []int{4, 4, 4, 4, 4}
	gids := []int64{100, 101, 102, 103, 104}
	c, err := scs.New(4, 1, 8, 5, 20, counts, gids, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	snap, err := Capture(c)
	if err != nil {
		t.Fatal(err)
	}

	blob, err := Encode(snap)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(blob)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.NumElements != snap.NumElements || decoded.NumParticles != snap.NumParticles {
		t.Fatalf("decoded counts = (%d,%d), want (%d,%d)",
			decoded.NumElements, decoded.NumParticles, snap.NumElements, snap.NumParticles)
	}
	if len(decoded.Columns) != len(snap.Columns) {
		t.Fatalf("decoded %d columns, want %d", len(decoded.Columns), len(snap.Columns))
	}
	if len(decoded.Gids) != len(snap.Gids) {
		t.Fatalf("decoded %d gids, want %d", len(decoded.Gids), len(snap.Gids))
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	backend := &FileBackend{Basepath: t.TempDir()}
	want := []byte("snapshot payload")
	if err := backend.WriteSnapshot("shard0", want); err != nil {
		t.Fatal(err)
	}
	got, err := backend.ReadSnapshot("shard0")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(want) {
		t.Fatalf("read %q, want %q", got, want)
	}

	// a second write replaces the snapshot; reads return the new payload.
	if err := backend.WriteSnapshot("shard0", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, err = backend.ReadSnapshot("shard0")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "v2" {
		t.Fatalf("read %q after second write, want %q", got, "v2")
	}
}
