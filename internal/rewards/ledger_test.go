package rewards

import (
	"errors"
	"testing"
)

func TestTransition(t *testing.T) {
	if err := Transition(StatusPending, StatusPosted); err != nil {
		t.Fatalf("pending->posted should be allowed: %v", err)
	}
	invalid := []struct{ from, to Status }{
		{StatusPosted, StatusPending},
		{StatusPosted, StatusPosted},
		{StatusPending, StatusPending},
		{Status("bogus"), StatusPosted},
	}
	for _, tc := range invalid {
		if err := Transition(tc.from, tc.to); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s->%s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}
