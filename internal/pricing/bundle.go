package pricing

// Item describes a line item used for bundle discount calculation.
type Item struct {
	Tier      Tier
	UnitPrice Money
	Qty       int
}

// Rates holds the percentage discount for each qualifying quantity band
// of a single tier. Fewer than three units in a tier earn no discount.
type Rates struct {
	Buy3     int
	Buy4     int
	Buy5Plus int
}

// DiscountTable maps each tier to its quantity-band rates, indexed by tier-1.
type DiscountTable [TierCount]Rates

// DefaultDiscountTable returns the production tiered bundling rates.
func DefaultDiscountTable() DiscountTable {
	return DiscountTable{
		{Buy3: 9, Buy4: 10, Buy5Plus: 11},
		{Buy3: 8, Buy4: 9, Buy5Plus: 10},
		{Buy3: 6, Buy4: 7, Buy5Plus: 8},
		{Buy3: 5, Buy4: 6, Buy5Plus: 7},
		{Buy3: 3, Buy4: 4, Buy5Plus: 5},
	}
}

type tierGroup struct {
	count    int
	subtotal Money
}

// BundleDiscount computes the order-level discount in cents across all
// tiers. Each tier qualifies on its own unit count; tiers are rounded
// independently and summed, never combined before rounding. Line unit
// prices are never altered — the discount is an order-level adjustment.
func BundleDiscount(items []Item, table DiscountTable) Money {
	var groups [TierCount]tierGroup
	for _, it := range items {
		if !it.Tier.Valid() || it.Qty <= 0 {
			continue
		}
		g := &groups[it.Tier-1]
		g.count += it.Qty
		g.subtotal += it.UnitPrice * Money(it.Qty)
	}

	var total Money
	for i, g := range groups {
		if g.count < 3 {
			continue
		}
		rates := table[i]
		percent := rates.Buy3
		switch {
		case g.count >= 5:
			percent = rates.Buy5Plus
		case g.count == 4:
			percent = rates.Buy4
		}
		total += roundPercent(g.subtotal, percent)
	}
	return total
}

// Subtotal sums unit price times quantity across items, with no adjustments.
func Subtotal(items []Item) Money {
	var sum Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		sum += it.UnitPrice * Money(it.Qty)
	}
	return sum
}
