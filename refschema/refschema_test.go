package refschema

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/launix-de/pscs/hcs"
	"github.com/launix-de/pscs/scs"
)

func TestSchemaRoundTrip(t *testing.T) {
	counts := []int{2, 2}
	c, err := scs.New(4, 1, 8, 2, 4, counts, nil, Schema())
	if err != nil {
		t.Fatal(err)
	}

	massView := scs.Column[float64](c, Mass)
	velView := scs.Column[float64](c, Velocity)
	chargeView := scs.Column[decimal.Decimal](c, Charge)

	var liveSlots []int
	var mu sync.Mutex
	err = c.ForEachParticle(context.Background(), func(elementID, slotIndex int, mask uint8) {
		if mask != 1 {
			return
		}
		mu.Lock()
		liveSlots = append(liveSlots, slotIndex)
		mu.Unlock()
		massView.Set(slotIndex, float64(elementID)+0.5)
		velView.SetVec(slotIndex, []float64{1, 2, 3})
		chargeView.Set(slotIndex, decimal.NewFromInt(int64(elementID)))
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(liveSlots) != 4 {
		t.Fatalf("saw %d live slots, want 4", len(liveSlots))
	}

	massCol := hcs.Column[float64](c.RawStore(), Mass)
	if total := Sum(massCol, liveSlots); total != 4 {
		t.Fatalf("mass sum = %v, want 4", total)
	}

	velCol := hcs.Column[float64](c.RawStore(), Velocity)
	for _, slot := range liveSlots {
		vec := velCol.GetVec(slot)
		if len(vec) != 3 || vec[0] != 1 || vec[1] != 2 || vec[2] != 3 {
			t.Fatalf("slot %d velocity = %v, want [1 2 3]", slot, vec)
		}
	}

	chargeCol := hcs.Column[decimal.Decimal](c.RawStore(), Charge)
	want := decimal.NewFromInt(0).Add(decimal.NewFromInt(0)).Add(decimal.NewFromInt(1)).Add(decimal.NewFromInt(1))
	if total := TotalCharge(chargeCol, liveSlots); !total.Equal(want) {
		t.Fatalf("charge sum = %v, want %v", total, want)
	}
}
