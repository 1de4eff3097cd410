package rewards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownAction is returned when the action is not in the rule catalog.
	ErrUnknownAction = errors.New("rewards: unknown action")
	// ErrCooldown indicates the action was attempted again too soon.
	ErrCooldown = errors.New("rewards: action on cooldown")
	// ErrEntryNotFound indicates no ledger entry matched the lookup.
	ErrEntryNotFound = errors.New("rewards: ledger entry not found")
	// ErrDuplicateKey indicates the unique key already exists in the ledger.
	ErrDuplicateKey = errors.New("rewards: duplicate unique key")
	// ErrMissingSourceID is returned when a webhook-verified action lacks a source.
	ErrMissingSourceID = errors.New("rewards: source id required")
)

// Store is the persistence boundary for the ledger and balances. The
// implementation must insert the entry and adjust the balance atomically.
type Store interface {
	FindByUniqueKey(ctx context.Context, uniqueKey string) (Entry, error)
	CountPosted(ctx context.Context, userID, action string) (int, error)
	CountSince(ctx context.Context, userID, action string, since time.Time) (int, error)
	// Insert appends the entry; when its status is posted the user's
	// balance is incremented in the same transaction. Returns the new
	// balance. ErrDuplicateKey when the unique key already exists.
	Insert(ctx context.Context, entry Entry) (int64, error)
	// MarkPosted moves a pending entry to posted and credits the balance.
	MarkPosted(ctx context.Context, uniqueKey string) (Entry, int64, error)
	Balance(ctx context.Context, userID string) (int64, error)
	CompletedActions(ctx context.Context, userID string) ([]string, error)
}

// Outcome summarises what an award attempt did.
type Outcome string

// Award outcomes.
const (
	OutcomePosted        Outcome = "posted"
	OutcomePending       Outcome = "pending"
	OutcomeAlreadyPosted Outcome = "already_posted"
)

// AwardResult is returned from award operations.
type AwardResult struct {
	Outcome Outcome `json:"status"`
	Balance int64   `json:"pointsBalance"`
}

// Service coordinates point awarding, posting, and balance reads.
type Service struct {
	Store Store
	Rules map[string]Rule
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) rules() map[string]Rule {
	if s != nil && s.Rules != nil {
		return s.Rules
	}
	return DefaultRules()
}

// Award applies a catalogued action for the user. Duplicate awards are a
// no-op success: the ledger's unique key guarantees a given key posts at
// most once regardless of retries or races.
func (s *Service) Award(ctx context.Context, userID, action, sourceID string) (AwardResult, error) {
	if s == nil || s.Store == nil {
		return AwardResult{}, errors.New("rewards service not configured")
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return AwardResult{}, fmt.Errorf("action required: %w", ErrUnknownAction)
	}
	rule, ok := s.rules()[action]
	if !ok {
		return AwardResult{}, fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}

	prior, err := s.Store.CountPosted(ctx, userID, action)
	if err != nil {
		return AwardResult{}, err
	}
	if rule.MaxPerUser > 0 && prior >= rule.MaxPerUser {
		balance, err := s.Store.Balance(ctx, userID)
		if err != nil {
			return AwardResult{}, err
		}
		return AwardResult{Outcome: OutcomeAlreadyPosted, Balance: balance}, nil
	}

	if rule.CooldownHours > 0 {
		since := s.now().Add(-time.Duration(rule.CooldownHours) * time.Hour)
		recent, err := s.Store.CountSince(ctx, userID, action, since)
		if err != nil {
			return AwardResult{}, err
		}
		if recent > 0 {
			return AwardResult{}, ErrCooldown
		}
	}

	status := StatusPosted
	uniqueKey := action + ":" + userID
	if rule.Verification == VerifyWebhook {
		if strings.TrimSpace(sourceID) == "" {
			return AwardResult{}, ErrMissingSourceID
		}
		uniqueKey = action + ":" + sourceID
		status = StatusPending
	}

	return s.apply(ctx, Entry{
		UserID:    userID,
		Action:    action,
		Points:    rule.Points,
		SourceID:  sourceID,
		UniqueKey: uniqueKey,
		Status:    status,
	})
}

// Apply posts an uncatalogued award (or debit, with negative points)
// immediately under the caller's unique key. Used for order earnings and
// redemption debits.
func (s *Service) Apply(ctx context.Context, userID, action string, points int64, sourceID, uniqueKey string) (AwardResult, error) {
	if s == nil || s.Store == nil {
		return AwardResult{}, errors.New("rewards service not configured")
	}
	if strings.TrimSpace(uniqueKey) == "" {
		return AwardResult{}, errors.New("rewards: unique key required")
	}
	return s.apply(ctx, Entry{
		UserID:    userID,
		Action:    action,
		Points:    points,
		SourceID:  sourceID,
		UniqueKey: uniqueKey,
		Status:    StatusPosted,
	})
}

func (s *Service) apply(ctx context.Context, entry Entry) (AwardResult, error) {
	existing, err := s.Store.FindByUniqueKey(ctx, entry.UniqueKey)
	if err == nil {
		balance, err := s.Store.Balance(ctx, entry.UserID)
		if err != nil {
			return AwardResult{}, err
		}
		outcome := OutcomeAlreadyPosted
		if existing.Status == StatusPending {
			outcome = OutcomePending
		}
		return AwardResult{Outcome: outcome, Balance: balance}, nil
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return AwardResult{}, err
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now()
	balance, err := s.Store.Insert(ctx, entry)
	if err != nil {
		if errors.Is(err, ErrDuplicateKey) {
			balance, berr := s.Store.Balance(ctx, entry.UserID)
			if berr != nil {
				return AwardResult{}, berr
			}
			return AwardResult{Outcome: OutcomeAlreadyPosted, Balance: balance}, nil
		}
		return AwardResult{}, err
	}

	outcome := OutcomePosted
	if entry.Status == StatusPending {
		outcome = OutcomePending
	}
	return AwardResult{Outcome: outcome, Balance: balance}, nil
}

// Post confirms a pending entry, crediting the balance. Already-posted
// entries are a no-op success.
func (s *Service) Post(ctx context.Context, uniqueKey string) (AwardResult, error) {
	if s == nil || s.Store == nil {
		return AwardResult{}, errors.New("rewards service not configured")
	}
	entry, err := s.Store.FindByUniqueKey(ctx, uniqueKey)
	if err != nil {
		return AwardResult{}, err
	}
	if entry.Status == StatusPosted {
		balance, err := s.Store.Balance(ctx, entry.UserID)
		if err != nil {
			return AwardResult{}, err
		}
		return AwardResult{Outcome: OutcomeAlreadyPosted, Balance: balance}, nil
	}
	if err := Transition(entry.Status, StatusPosted); err != nil {
		return AwardResult{}, err
	}
	_, balance, err := s.Store.MarkPosted(ctx, uniqueKey)
	if err != nil {
		return AwardResult{}, err
	}
	return AwardResult{Outcome: OutcomePosted, Balance: balance}, nil
}

// Balance returns the user's current point balance.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.Store == nil {
		return 0, errors.New("rewards service not configured")
	}
	return s.Store.Balance(ctx, userID)
}

// Completed lists the distinct actions the user has posted entries for.
func (s *Service) Completed(ctx context.Context, userID string) ([]string, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("rewards service not configured")
	}
	return s.Store.CompletedActions(ctx, userID)
}
