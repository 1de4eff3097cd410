package checkout

import (
	"errors"
	"fmt"
	"math"

	"github.com/luvbricks/backend-store/internal/pricing"
	"github.com/luvbricks/backend-store/internal/rewards"
	"github.com/luvbricks/backend-store/internal/shipping"
)

// ErrInvalidInput flags a totals request with out-of-range fields.
var ErrInvalidInput = errors.New("invalid totals input")

// EarnDivisorCents converts post-discount spend into earned points:
// one point per whole dollar.
const EarnDivisorCents = 100

// Line is one priced row of a totals request. The tier is always
// derived from the unit price, never trusted from the caller.
type Line struct {
	UnitPriceCents int64
	Qty            int
	WeightLb       float64
}

// TotalsInput carries everything the engine needs to price an order.
type TotalsInput struct {
	Items           []Line
	AvailablePoints int64
	RequestedPoints int64
	TaxRateBps      int
}

// Totals is the full pricing breakdown. Every money field is integer
// cents; the waterfall order is fixed and each step rounds half-up
// independently.
type Totals struct {
	MsrpSubtotalCents             int64          `json:"msrpSubtotalCents"`
	RedeemablePointsMax           int64          `json:"redeemablePointsMax"`
	AppliedRedeemPoints           int64          `json:"appliedRedeemPoints"`
	AppliedRedeemCents            int64          `json:"appliedRedeemCents"`
	BundleDiscountCents           int64          `json:"bundleDiscountCents"`
	SubAfterRewardsCents          int64          `json:"subAfterRewardsCents"`
	SubAfterRewardsAndBundleCents int64          `json:"subAfterRewardsAndBundleCents"`
	TaxCents                      int64          `json:"taxCents"`
	Shipping                      shipping.Quote `json:"shipping"`
	GrandTotalCents               int64          `json:"grandTotalCents"`
	PointsEarned                  int64          `json:"pointsEarned"`
}

// Engine computes order totals from its rate tables. The zero value is
// not usable; construct with NewEngine.
type Engine struct {
	Tiers      pricing.TierTable
	Discounts  pricing.DiscountTable
	Rates      shipping.RateTable
	Conversion rewards.Conversion
}

// NewEngine returns an engine loaded with the production tables.
func NewEngine() *Engine {
	return &Engine{
		Tiers:      pricing.DefaultTierTable(),
		Discounts:  pricing.DefaultDiscountTable(),
		Rates:      shipping.DefaultRateTable(),
		Conversion: rewards.DefaultConversion(),
	}
}

// TaxRateBps converts a percentage tax rate to basis points, rounding
// half-up. 7.0 becomes 700.
func TaxRateBps(percent float64) int {
	if percent <= 0 {
		return 0
	}
	return int(math.Round(percent * 100))
}

// Totals runs the pricing waterfall:
//
//	MSRP subtotal -> point redemption -> bundle discount -> tax -> shipping
//
// The bundle discount is computed from the original line prices, not
// the redemption-reduced subtotal. Tax applies to the post-discount
// subtotal only; shipping is added after tax, untaxed.
func (e *Engine) Totals(in TotalsInput) (Totals, error) {
	priced := make([]pricing.Item, 0, len(in.Items))
	shipped := make([]shipping.Item, 0, len(in.Items))
	for i, line := range in.Items {
		if line.Qty < 1 {
			return Totals{}, fmt.Errorf("item %d: qty must be at least 1: %w", i, ErrInvalidInput)
		}
		if line.WeightLb < 0 {
			return Totals{}, fmt.Errorf("item %d: weight must not be negative: %w", i, ErrInvalidInput)
		}
		tier, err := e.Tiers.Classify(line.UnitPriceCents)
		if err != nil {
			return Totals{}, fmt.Errorf("item %d: %w", i, err)
		}
		priced = append(priced, pricing.Item{Tier: tier, UnitPrice: line.UnitPriceCents, Qty: line.Qty})
		shipped = append(shipped, shipping.Item{Tier: int(tier), Qty: line.Qty, WeightLb: line.WeightLb})
	}
	if in.AvailablePoints < 0 || in.RequestedPoints < 0 {
		return Totals{}, fmt.Errorf("points must not be negative: %w", ErrInvalidInput)
	}
	if in.TaxRateBps < 0 {
		return Totals{}, fmt.Errorf("tax rate must not be negative: %w", ErrInvalidInput)
	}

	msrp := pricing.Subtotal(priced)
	redemption := rewards.Redeem(msrp, in.AvailablePoints, in.RequestedPoints, e.Conversion)
	bundle := pricing.BundleDiscount(priced, e.Discounts)

	subAfterRewards := msrp - redemption.AppliedCents
	subAfterBoth := subAfterRewards - bundle
	if subAfterBoth < 0 {
		subAfterBoth = 0
	}

	tax := pricing.RoundBps(subAfterBoth, in.TaxRateBps)
	ship := shipping.Compute(shipped, e.Rates)

	return Totals{
		MsrpSubtotalCents:             msrp,
		RedeemablePointsMax:           redemption.MaxRedeemable,
		AppliedRedeemPoints:           redemption.AppliedPoints,
		AppliedRedeemCents:            redemption.AppliedCents,
		BundleDiscountCents:           bundle,
		SubAfterRewardsCents:          subAfterRewards,
		SubAfterRewardsAndBundleCents: subAfterBoth,
		TaxCents:                      tax,
		Shipping:                      ship,
		GrandTotalCents:               subAfterBoth + tax + ship.FinalCents,
		PointsEarned:                  subAfterBoth / EarnDivisorCents,
	}, nil
}
