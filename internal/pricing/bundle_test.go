package pricing

import "testing"

func TestBundleDiscountThresholds(t *testing.T) {
	table := DefaultDiscountTable()
	cases := []struct {
		name string
		qty  int
		want Money
	}{
		// tier 1 at $20.00/unit: 9% at 3, 10% at 4, 11% at 5+
		{"two units no discount", 2, 0},
		{"three units buy3", 3, 540},
		{"four units buy4", 4, 800},
		{"five units buy5", 5, 1100},
		{"six units stays buy5", 6, 1320},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items := []Item{{Tier: 1, UnitPrice: 2000, Qty: tc.qty}}
			if got := BundleDiscount(items, table); got != tc.want {
				t.Fatalf("qty %d: got %d, want %d", tc.qty, got, tc.want)
			}
		})
	}
}

func TestBundleDiscountTiersAreIndependent(t *testing.T) {
	table := DefaultDiscountTable()
	// Two tier-1 units and two tier-2 units: neither tier reaches three,
	// so a four-unit cart still earns nothing.
	items := []Item{
		{Tier: 1, UnitPrice: 2000, Qty: 2},
		{Tier: 2, UnitPrice: 5000, Qty: 2},
	}
	if got := BundleDiscount(items, table); got != 0 {
		t.Fatalf("mixed tiers below threshold: got %d, want 0", got)
	}

	// Three of each: 9% of 6000 plus 8% of 15000, rounded per tier.
	items = []Item{
		{Tier: 1, UnitPrice: 2000, Qty: 3},
		{Tier: 2, UnitPrice: 5000, Qty: 3},
	}
	want := Money(540 + 1200)
	if got := BundleDiscount(items, table); got != want {
		t.Fatalf("mixed qualifying tiers: got %d, want %d", got, want)
	}
}

func TestBundleDiscountRoundsHalfUpPerTier(t *testing.T) {
	table := DefaultDiscountTable()
	// Tier 5 at 3% of 3 x 16683 = 50049; 3% = 1501.47 -> 1501.
	items := []Item{{Tier: 5, UnitPrice: 16683, Qty: 3}}
	if got := BundleDiscount(items, table); got != 1501 {
		t.Fatalf("got %d, want 1501", got)
	}
	// 3% of 50050 = 1501.5 rounds up to 1502.
	items = []Item{{Tier: 5, UnitPrice: 50050, Qty: 1}, {Tier: 5, UnitPrice: 0, Qty: 2}}
	if got := BundleDiscount(items, table); got != 1502 {
		t.Fatalf("half-up: got %d, want 1502", got)
	}
}

func TestBundleDiscountSkipsInvalidRows(t *testing.T) {
	table := DefaultDiscountTable()
	items := []Item{
		{Tier: 0, UnitPrice: 2000, Qty: 3},
		{Tier: 1, UnitPrice: 2000, Qty: 0},
		{Tier: 6, UnitPrice: 2000, Qty: 3},
	}
	if got := BundleDiscount(items, table); got != 0 {
		t.Fatalf("invalid rows should not discount: got %d", got)
	}
}

func TestSubtotal(t *testing.T) {
	items := []Item{
		{Tier: 1, UnitPrice: 2000, Qty: 3},
		{Tier: 2, UnitPrice: 5000, Qty: 1},
		{Tier: 1, UnitPrice: 999, Qty: 0},
	}
	if got := Subtotal(items); got != 11000 {
		t.Fatalf("got %d, want 11000", got)
	}
	if got := Subtotal(nil); got != 0 {
		t.Fatalf("empty: got %d, want 0", got)
	}
}
