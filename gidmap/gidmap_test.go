package gidmap

import "testing"

func TestRoundTrip(t *testing.T) {
	m, err := New(3, []int64{100, 200, 300})
	if err != nil {
		t.Fatal(err)
	}
	for e, want := range []int64{100, 200, 300} {
		if got := m.ElementToGid(e); got != want {
			t.Fatalf("ElementToGid(%d) = %d, want %d", e, got, want)
		}
	}
	el, ok := m.GidToElement(200)
	if !ok || el != 1 {
		t.Fatalf("GidToElement(200) = (%d, %v), want (1, true)", el, ok)
	}
	if _, ok := m.GidToElement(999); ok {
		t.Fatal("GidToElement(999) should not resolve")
	}
}

func TestDuplicateGidRejected(t *testing.T) {
	if _, err := New(2, []int64{5, 5}); err == nil {
		t.Fatal("expected error on duplicate gid")
	}
}

func TestAscendOrder(t *testing.T) {
	m, _ := New(3, []int64{300, 100, 200})
	var gids []int64
	m.Ascend(func(gid int64, element int) bool {
		gids = append(gids, gid)
		return true
	})
	want := []int64{100, 200, 300}
	for i, g := range want {
		if gids[i] != g {
			t.Fatalf("Ascend order = %v, want %v", gids, want)
		}
	}
}
