package rewards

// Conversion defines how loyalty points convert to money. Redemption is
// quantized to whole blocks; partial blocks are never honored.
type Conversion struct {
	BlockPoints int64
	BlockCents  int64
}

// DefaultConversion returns the production rate: 150 points per $5 block.
func DefaultConversion() Conversion {
	return Conversion{BlockPoints: 150, BlockCents: 500}
}

// Redemption is the outcome of a redemption request.
type Redemption struct {
	AppliedPoints int64 `json:"appliedPoints"`
	AppliedCents  int64 `json:"appliedCents"`
	MaxRedeemable int64 `json:"maxRedeemable"`
}

// Redeem computes the largest allowed redemption for the order. The
// redemption is bounded by the user's balance and by the subtotal — a
// block can only be applied when the order holds its full value, so
// redemption never drives the subtotal negative. Negative requests are
// treated as zero; over-asking is clamped, not rejected.
func Redeem(subtotalCents, available, requested int64, c Conversion) Redemption {
	if c.BlockPoints <= 0 || c.BlockCents <= 0 {
		return Redemption{}
	}
	if subtotalCents < 0 {
		subtotalCents = 0
	}
	if available < 0 {
		available = 0
	}
	if requested < 0 {
		requested = 0
	}

	maxBlocksBySubtotal := subtotalCents / c.BlockCents
	maxPointsBySubtotal := maxBlocksBySubtotal * c.BlockPoints
	maxRedeemable := available
	if maxPointsBySubtotal < maxRedeemable {
		maxRedeemable = maxPointsBySubtotal
	}

	requestedBlocks := requested / c.BlockPoints
	appliedBlocks := maxRedeemable / c.BlockPoints
	if requestedBlocks < appliedBlocks {
		appliedBlocks = requestedBlocks
	}

	return Redemption{
		AppliedPoints: appliedBlocks * c.BlockPoints,
		AppliedCents:  appliedBlocks * c.BlockCents,
		MaxRedeemable: maxRedeemable,
	}
}
