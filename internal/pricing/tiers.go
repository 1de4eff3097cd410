package pricing

import (
	"errors"
	"fmt"
)

// Tier is one of the five discrete price bands used for bundle-discount
// and shipping-rate policy.
type Tier int

// TierCount is the number of price tiers.
const TierCount = 5

// ErrNegativePrice is returned when a price below zero is classified.
var ErrNegativePrice = errors.New("pricing: price must not be negative")

// ErrInvalidTier is returned when a tier outside 1..5 enters a calculation.
var ErrInvalidTier = errors.New("pricing: tier out of range")

// TierTable maps prices to tiers. UpperBounds holds the inclusive upper
// bound in cents for tiers 1 through 4; tier 5 is open ended even though
// the storefront presents a nominal ceiling.
type TierTable struct {
	UpperBounds [TierCount - 1]Money
}

// DefaultTierTable returns the production price bands:
// tier 1 up to $25.99, 2 up to $60.99, 3 up to $100.99, 4 up to $150.99,
// tier 5 above.
func DefaultTierTable() TierTable {
	return TierTable{UpperBounds: [TierCount - 1]Money{2599, 6099, 10099, 15099}}
}

// Classify maps a list price in cents to its tier. A price exactly on a
// boundary belongs to the lower tier.
func (t TierTable) Classify(priceCents Money) (Tier, error) {
	if priceCents < 0 {
		return 0, fmt.Errorf("classify %d: %w", priceCents, ErrNegativePrice)
	}
	for i, max := range t.UpperBounds {
		if priceCents <= max {
			return Tier(i + 1), nil
		}
	}
	return Tier(TierCount), nil
}

// Valid reports whether the tier is within the supported range.
func (tier Tier) Valid() bool {
	return tier >= 1 && tier <= TierCount
}

// RangeLabel renders the tier's price band, e.g. "$26.00–$60.99" or "$151.00+".
func (t TierTable) RangeLabel(tier Tier) string {
	if !tier.Valid() {
		return ""
	}
	min := Money(499)
	if tier > 1 {
		min = t.UpperBounds[tier-2] + 1
	}
	if tier == TierCount {
		return fmt.Sprintf("$%d.%02d+", min/100, min%100)
	}
	max := t.UpperBounds[tier-1]
	return fmt.Sprintf("$%d.%02d–$%d.%02d", min/100, min%100, max/100, max%100)
}
