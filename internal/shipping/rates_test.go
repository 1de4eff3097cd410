package shipping

import "testing"

func TestComputeWeightBands(t *testing.T) {
	table := DefaultRateTable()
	cases := []struct {
		name   string
		weight float64
		want   int64
	}{
		{"two ounces", 0.125, 450},
		{"six ounces", 0.375, 600},
		{"fourteen ounces", 0.875, 750},
		{"one pound", 1.0, 950},
		{"four pounds", 4.0, 1500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := Compute([]Item{{Tier: 1, Qty: 1, WeightLb: tc.weight}}, table)
			if q.FinalCents != tc.want {
				t.Fatalf("weight %v: got %d, want %d", tc.weight, q.FinalCents, tc.want)
			}
			if q.Reason != ReasonNone || q.IsHeavy {
				t.Fatalf("weight %v: unexpected credit %+v", tc.weight, q)
			}
		})
	}

	// Five 2.5 lb units total 12.5 lb, landing in the top ground band.
	q := Compute([]Item{{Tier: 2, Qty: 5, WeightLb: 2.5}}, table)
	if q.FinalCents != 2000 {
		t.Fatalf("12.5 lb total: got %d, want 2000", q.FinalCents)
	}

	// Past every band the ceiling applies; two separate 7 lb lines stay
	// under the per-line heavy threshold.
	q = Compute([]Item{
		{Tier: 3, Qty: 1, WeightLb: 7.0},
		{Tier: 3, Qty: 1, WeightLb: 7.0},
	}, table)
	if q.FinalCents != 3800 || q.IsHeavy {
		t.Fatalf("over bands: %+v", q)
	}
}

func TestComputeTierFlatRates(t *testing.T) {
	table := DefaultRateTable()

	q := Compute([]Item{{Tier: 4, Qty: 1, WeightLb: 0.2}}, table)
	if q.BaseCents != 1750 || q.CreditCents != 500 || q.FinalCents != 1250 || q.Reason != ReasonTier4 {
		t.Fatalf("tier 4: %+v", q)
	}

	// Tier 5 wins over tier 4 when both are in the cart.
	q = Compute([]Item{
		{Tier: 4, Qty: 1, WeightLb: 0.2},
		{Tier: 5, Qty: 1, WeightLb: 0.2},
	}, table)
	if q.BaseCents != 2000 || q.CreditCents != 1000 || q.FinalCents != 1000 || q.Reason != ReasonTier5 {
		t.Fatalf("tier 5: %+v", q)
	}
}

func TestComputeHeavyOverridesTiers(t *testing.T) {
	table := DefaultRateTable()

	// Per-unit weight over the threshold flags heavy even at tier 5.
	q := Compute([]Item{{Tier: 5, Qty: 1, WeightLb: 13.0}}, table)
	if !q.IsHeavy || q.Reason != ReasonHeavy || q.FinalCents != 3800 || q.CreditCents != 0 {
		t.Fatalf("heavy unit: %+v", q)
	}

	// Per-line weight counts too: six 2.2 lb units exceed 12.5 lb on one line.
	q = Compute([]Item{{Tier: 1, Qty: 6, WeightLb: 2.2}}, table)
	if !q.IsHeavy || q.FinalCents != 3800 {
		t.Fatalf("heavy line: %+v", q)
	}
}

func TestComputeEmptyCart(t *testing.T) {
	q := Compute(nil, DefaultRateTable())
	if q.FinalCents != 0 || q.BaseCents != 0 || q.Reason != ReasonNone {
		t.Fatalf("empty cart: %+v", q)
	}
}
