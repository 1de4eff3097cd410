package tax

import (
	"errors"
	"testing"
)

func TestRateForState(t *testing.T) {
	cases := map[string]float64{
		"TX": 0.0625,
		"IN": 0.07,
		"OR": 0,
		"":   0,
		"ZZ": 0,
	}
	for state, want := range cases {
		if got := RateForState(state); got != want {
			t.Fatalf("RateForState(%q) = %v, want %v", state, got, want)
		}
	}
}

func TestBpsForState(t *testing.T) {
	cases := map[string]int{
		"TX": 625,
		"IN": 700,
		"MO": 423, // 4.225% rounds half-up
		"NM": 513,
		"OR": 0,
	}
	for state, want := range cases {
		if got := BpsForState(state); got != want {
			t.Fatalf("BpsForState(%q) = %d, want %d", state, got, want)
		}
	}
}

func TestStateForZip(t *testing.T) {
	cases := map[string]string{
		"75001": "TX",
		"90210": "CA",
		"10001": "NY",
		"00501": "NY",
		"46204": "IN",
		"99501": "AK",
		"02134": "MA",
	}
	for zip, want := range cases {
		got, err := StateForZip(zip)
		if err != nil {
			t.Fatalf("StateForZip(%q): %v", zip, err)
		}
		if got != want {
			t.Fatalf("StateForZip(%q) = %q, want %q", zip, got, want)
		}
	}
}

func TestStateForZipErrors(t *testing.T) {
	for _, zip := range []string{"", "1234", "123456", "abcde"} {
		if _, err := StateForZip(zip); !errors.Is(err, ErrInvalidZip) {
			t.Fatalf("StateForZip(%q): expected ErrInvalidZip, got %v", zip, err)
		}
	}
	if _, err := StateForZip("00001"); !errors.Is(err, ErrZipNotFound) {
		t.Fatalf("expected ErrZipNotFound, got %v", err)
	}
}
