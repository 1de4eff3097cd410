package pricing

// Money represents a monetary value stored in integer cents.
type Money = int64

// roundPercent applies a whole-number percentage to base using
// round-half-up on the resulting cents.
func roundPercent(base Money, percent int) Money {
	if base <= 0 || percent <= 0 {
		return 0
	}
	return (base*Money(percent) + 50) / 100
}

// RoundBps applies a basis-point rate to base using round-half-up.
// Used for tax so fractional percentages (e.g. 6.35%) stay in integer math.
func RoundBps(base Money, bps int) Money {
	if base <= 0 || bps <= 0 {
		return 0
	}
	return (base*Money(bps) + 5000) / 10000
}
