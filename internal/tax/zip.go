package tax

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidZip rejects anything that is not five digits.
	ErrInvalidZip = errors.New("tax: zip must be five digits")
	// ErrZipNotFound indicates the prefix maps to no state.
	ErrZipNotFound = errors.New("tax: zip not found")
)

type prefixRange struct {
	lo, hi int
	state  string
}

// prefixRanges maps three-digit ZIP prefixes to states. Ranges follow
// the USPS sectional center assignments; a handful of split prefixes
// resolve to the dominant state, which is fine for a tax estimate.
var prefixRanges = []prefixRange{
	{5, 5, "NY"},
	{10, 27, "MA"},
	{28, 29, "RI"},
	{30, 38, "NH"},
	{39, 49, "ME"},
	{50, 59, "VT"},
	{60, 69, "CT"},
	{70, 89, "NJ"},
	{100, 149, "NY"},
	{150, 196, "PA"},
	{197, 199, "DE"},
	{200, 205, "DC"},
	{206, 219, "MD"},
	{220, 246, "VA"},
	{247, 268, "WV"},
	{270, 289, "NC"},
	{290, 299, "SC"},
	{300, 319, "GA"},
	{320, 349, "FL"},
	{350, 369, "AL"},
	{370, 385, "TN"},
	{386, 397, "MS"},
	{398, 399, "GA"},
	{400, 427, "KY"},
	{430, 459, "OH"},
	{460, 479, "IN"},
	{480, 499, "MI"},
	{500, 528, "IA"},
	{530, 549, "WI"},
	{550, 567, "MN"},
	{570, 577, "SD"},
	{580, 588, "ND"},
	{590, 599, "MT"},
	{600, 629, "IL"},
	{630, 658, "MO"},
	{660, 679, "KS"},
	{680, 693, "NE"},
	{700, 714, "LA"},
	{716, 729, "AR"},
	{730, 749, "OK"},
	{750, 799, "TX"},
	{800, 816, "CO"},
	{820, 831, "WY"},
	{832, 838, "ID"},
	{840, 847, "UT"},
	{850, 865, "AZ"},
	{870, 884, "NM"},
	{885, 885, "TX"},
	{889, 898, "NV"},
	{900, 961, "CA"},
	{967, 968, "HI"},
	{970, 979, "OR"},
	{980, 994, "WA"},
	{995, 999, "AK"},
}

// StateForZip resolves a five-digit ZIP to its state abbreviation.
func StateForZip(zip string) (string, error) {
	if len(zip) != 5 {
		return "", ErrInvalidZip
	}
	n, err := strconv.Atoi(zip)
	if err != nil || n < 0 {
		return "", ErrInvalidZip
	}
	prefix := n / 100
	for _, r := range prefixRanges {
		if prefix >= r.lo && prefix <= r.hi {
			return r.state, nil
		}
	}
	return "", fmt.Errorf("zip %s: %w", zip, ErrZipNotFound)
}
