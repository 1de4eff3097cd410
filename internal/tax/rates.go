package tax

import "math"

// stateRates holds base state-level sales tax as a decimal fraction.
// Local add-ons are excluded; checkout presents the result as an
// estimate, not a filing-grade figure.
var stateRates = map[string]float64{
	"AL": 0.04, "AK": 0.00, "AZ": 0.056, "AR": 0.056, "CA": 0.075,
	"CO": 0.029, "CT": 0.0635, "DE": 0.00, "FL": 0.06, "GA": 0.04,
	"HI": 0.04, "ID": 0.06, "IL": 0.0625, "IN": 0.07, "IA": 0.06,
	"KS": 0.065, "KY": 0.06, "LA": 0.04, "ME": 0.055, "MD": 0.06,
	"MA": 0.0625, "MI": 0.06, "MN": 0.0688, "MS": 0.07, "MO": 0.04225,
	"MT": 0.00, "NE": 0.055, "NV": 0.0685, "NH": 0.00, "NJ": 0.07,
	"NM": 0.05125, "NY": 0.04, "NC": 0.0475, "ND": 0.05, "OH": 0.0575,
	"OK": 0.045, "OR": 0.00, "PA": 0.06, "RI": 0.07, "SC": 0.06,
	"SD": 0.04, "TN": 0.07, "TX": 0.0625, "UT": 0.0595, "VT": 0.06,
	"VA": 0.053, "WA": 0.065, "WV": 0.06, "WI": 0.05, "WY": 0.04,
	"DC": 0.06,
}

// RateForState returns the state's base rate as a decimal fraction.
// Unknown or empty states tax at zero.
func RateForState(state string) float64 {
	return stateRates[state]
}

// BpsForState converts the state's rate to basis points, rounding
// half-up. Texas's 6.25% becomes 625.
func BpsForState(state string) int {
	return int(math.Round(RateForState(state) * 10000))
}
