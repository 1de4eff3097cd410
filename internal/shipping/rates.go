package shipping

// Item describes a cart line for shipping calculation.
type Item struct {
	Tier     int
	Qty      int
	WeightLb float64
}

// Band is a weight band with an inclusive upper bound in pounds.
type Band struct {
	MaxLb float64
	Cents int64
}

// CreditReason explains why a shipping credit (or surcharge) applied.
type CreditReason string

// Credit reasons surfaced to the storefront.
const (
	ReasonNone  CreditReason = "none"
	ReasonTier4 CreditReason = "tier4"
	ReasonTier5 CreditReason = "tier5"
	ReasonHeavy CreditReason = "heavy"
)

// RateTable holds the ground-rate bands and the tier flat-rate policy.
type RateTable struct {
	Bands        []Band
	CeilingCents int64

	// HeavyLb is the per-unit or per-line weight above which the flat
	// heavy surcharge replaces all other rates.
	HeavyLb    float64
	HeavyCents int64

	Tier4Base   int64
	Tier4Credit int64
	Tier5Base   int64
	Tier5Credit int64
}

// DefaultRateTable returns the production shipping policy.
func DefaultRateTable() RateTable {
	return RateTable{
		Bands: []Band{
			{MaxLb: 0.125, Cents: 450}, // 0–2 oz
			{MaxLb: 0.375, Cents: 600}, // 2.01–6 oz
			{MaxLb: 0.875, Cents: 750}, // 6.01–14 oz
			{MaxLb: 1.0, Cents: 950},   // 14.01 oz – 1 lb
			{MaxLb: 4.0, Cents: 1500},  // 1.01 – 4 lb
			{MaxLb: 12.5, Cents: 2000}, // 4.01 – 12.5 lb
		},
		CeilingCents: 3800,
		HeavyLb:      12.5,
		HeavyCents:   3800,
		Tier4Base:    1750,
		Tier4Credit:  500,
		Tier5Base:    2000,
		Tier5Credit:  1000,
	}
}

// Quote is the computed shipping charge breakdown.
type Quote struct {
	BaseCents   int64        `json:"baseCents"`
	CreditCents int64        `json:"creditCents"`
	FinalCents  int64        `json:"finalCents"`
	IsHeavy     bool         `json:"isHeavy"`
	Reason      CreditReason `json:"creditReason"`
}

// Compute calculates the shipping charge for the given items.
//
// Tiers 4–5 pay a flat negotiated base with a visible credit regardless of
// actual weight, while tiers 1–3 pay true weight-banded ground rates. The
// heavy surcharge supersedes both. This asymmetry is deliberate policy.
func Compute(items []Item, t RateTable) Quote {
	if len(items) == 0 {
		return Quote{Reason: ReasonNone}
	}

	var (
		anyHeavy    bool
		maxTier     int
		totalWeight float64
	)
	for _, it := range items {
		if it.Tier > maxTier {
			maxTier = it.Tier
		}
		perUnit := it.WeightLb
		if perUnit < 0 {
			perUnit = 0
		}
		qty := it.Qty
		if qty < 0 {
			qty = 0
		}
		line := perUnit * float64(qty)
		totalWeight += line
		if perUnit > t.HeavyLb || line > t.HeavyLb {
			anyHeavy = true
		}
	}

	if anyHeavy {
		return Quote{
			BaseCents:  t.HeavyCents,
			FinalCents: t.HeavyCents,
			IsHeavy:    true,
			Reason:     ReasonHeavy,
		}
	}

	base := t.groundRate(totalWeight)
	var credit int64
	reason := ReasonNone
	switch {
	case maxTier >= 5:
		base = t.Tier5Base
		credit = t.Tier5Credit
		reason = ReasonTier5
	case maxTier == 4:
		base = t.Tier4Base
		credit = t.Tier4Credit
		reason = ReasonTier4
	}

	final := base - credit
	if final < 0 {
		final = 0
	}
	return Quote{
		BaseCents:   base,
		CreditCents: credit,
		FinalCents:  final,
		Reason:      reason,
	}
}

func (t RateTable) groundRate(totalLb float64) int64 {
	for _, band := range t.Bands {
		if totalLb <= band.MaxLb {
			return band.Cents
		}
	}
	return t.CeilingCents
}
