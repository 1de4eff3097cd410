package rewards

import (
	"errors"
	"fmt"
	"time"
)

// Status is the posting state of a ledger entry.
type Status string

// Ledger entry states. Posted is terminal.
const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
)

// ErrInvalidTransition is returned for a disallowed ledger status change.
var ErrInvalidTransition = errors.New("rewards: invalid ledger transition")

// Valid reports whether the status is a known ledger state.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusPosted
}

// Transition validates a ledger status change. The only allowed move is
// pending to posted.
func Transition(from, to Status) error {
	if !from.Valid() || !to.Valid() {
		return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
	}
	if from == StatusPending && to == StatusPosted {
		return nil
	}
	return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}

// Entry is an append-only points ledger record. A given UniqueKey posts
// at most once.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Points    int64     `json:"points"`
	SourceID  string    `json:"sourceId,omitempty"`
	UniqueKey string    `json:"uniqueKey"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
