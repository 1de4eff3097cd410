package rewards

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// memStore is an in-memory ledger matching the transactional contract
// of the Postgres store.
type memStore struct {
	entries  map[string]Entry
	balances map[string]int64
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]Entry{}, balances: map[string]int64{}}
}

func (m *memStore) FindByUniqueKey(_ context.Context, uniqueKey string) (Entry, error) {
	entry, ok := m.entries[uniqueKey]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (m *memStore) CountPosted(_ context.Context, userID, action string) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.UserID == userID && e.Action == action && e.Status == StatusPosted {
			count++
		}
	}
	return count, nil
}

func (m *memStore) CountSince(_ context.Context, userID, action string, since time.Time) (int, error) {
	count := 0
	for _, e := range m.entries {
		if e.UserID == userID && e.Action == action && !e.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *memStore) Insert(_ context.Context, entry Entry) (int64, error) {
	if _, exists := m.entries[entry.UniqueKey]; exists {
		return 0, fmt.Errorf("insert: %w", ErrDuplicateKey)
	}
	m.entries[entry.UniqueKey] = entry
	if entry.Status == StatusPosted {
		m.balances[entry.UserID] += entry.Points
	}
	return m.balances[entry.UserID], nil
}

func (m *memStore) MarkPosted(_ context.Context, uniqueKey string) (Entry, int64, error) {
	entry, ok := m.entries[uniqueKey]
	if !ok || entry.Status != StatusPending {
		return Entry{}, 0, ErrEntryNotFound
	}
	entry.Status = StatusPosted
	m.entries[uniqueKey] = entry
	m.balances[entry.UserID] += entry.Points
	return entry, m.balances[entry.UserID], nil
}

func (m *memStore) Balance(_ context.Context, userID string) (int64, error) {
	return m.balances[userID], nil
}

func (m *memStore) CompletedActions(_ context.Context, userID string) ([]string, error) {
	seen := map[string]bool{}
	var actions []string
	for _, e := range m.entries {
		if e.UserID == userID && e.Status == StatusPosted && !seen[e.Action] {
			seen[e.Action] = true
			actions = append(actions, e.Action)
		}
	}
	return actions, nil
}

func newTestService(store Store) *Service {
	return &Service{
		Store: store,
		Rules: DefaultRules(),
		Now:   func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestAwardPostsOnce(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	result, err := svc.Award(ctx, "u1", ActionAccountCreate, "")
	if err != nil {
		t.Fatalf("first award: %v", err)
	}
	if result.Outcome != OutcomePosted || result.Balance != 125 {
		t.Fatalf("first award: %+v", result)
	}

	// Replaying the same action is a no-op success, never a double credit.
	result, err = svc.Award(ctx, "u1", ActionAccountCreate, "")
	if err != nil {
		t.Fatalf("second award: %v", err)
	}
	if result.Outcome != OutcomeAlreadyPosted || result.Balance != 125 {
		t.Fatalf("second award: %+v", result)
	}
}

func TestAwardUnknownAction(t *testing.T) {
	svc := newTestService(newMemStore())
	if _, err := svc.Award(context.Background(), "u1", "not_a_thing", ""); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestAwardAccumulatesAcrossActions(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	actions := []string{ActionAccountCreate, ActionFollowTikTok, ActionShareStore}
	var last AwardResult
	for _, action := range actions {
		result, err := svc.Award(ctx, "u1", action, "")
		if err != nil {
			t.Fatalf("award %s: %v", action, err)
		}
		last = result
	}
	if last.Balance != 125+25+50 {
		t.Fatalf("balance: got %d, want 200", last.Balance)
	}

	completed, err := svc.Completed(ctx, "u1")
	if err != nil {
		t.Fatalf("completed: %v", err)
	}
	if len(completed) != 3 {
		t.Fatalf("completed actions: got %v", completed)
	}
}

func TestApplyIsIdempotentPerKey(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	result, err := svc.Apply(ctx, "u1", ActionOrderPoints, 49, "order-1", "order_points:order-1")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if result.Outcome != OutcomePosted || result.Balance != 49 {
		t.Fatalf("apply: %+v", result)
	}

	result, err = svc.Apply(ctx, "u1", ActionOrderPoints, 49, "order-1", "order_points:order-1")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Outcome != OutcomeAlreadyPosted || result.Balance != 49 {
		t.Fatalf("replay: %+v", result)
	}
}

func TestApplyDebitsRedemption(t *testing.T) {
	svc := newTestService(newMemStore())
	ctx := context.Background()

	if _, err := svc.Apply(ctx, "u1", ActionOrderPoints, 300, "order-1", "order_points:order-1"); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
	result, err := svc.Apply(ctx, "u1", ActionOrderRedeem, -150, "order-2", "order_redeem:order-2")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if result.Balance != 150 {
		t.Fatalf("balance after debit: got %d, want 150", result.Balance)
	}
}

func TestPostPendingEntry(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store)
	ctx := context.Background()

	// Webhook-verified rules enter as pending.
	svc.Rules["social_subscribe_youtube_webhook"] = Rule{
		Action:       "social_subscribe_youtube_webhook",
		Points:       50,
		MaxPerUser:   1,
		Verification: VerifyWebhook,
	}
	result, err := svc.Award(ctx, "u1", "social_subscribe_youtube_webhook", "yt-123")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if result.Outcome != OutcomePending || result.Balance != 0 {
		t.Fatalf("pending award: %+v", result)
	}

	result, err = svc.Post(ctx, "social_subscribe_youtube_webhook:yt-123")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.Outcome != OutcomePosted || result.Balance != 50 {
		t.Fatalf("post: %+v", result)
	}

	// Posting twice is a no-op.
	result, err = svc.Post(ctx, "social_subscribe_youtube_webhook:yt-123")
	if err != nil {
		t.Fatalf("repost: %v", err)
	}
	if result.Outcome != OutcomeAlreadyPosted || result.Balance != 50 {
		t.Fatalf("repost: %+v", result)
	}
}

func TestAwardWebhookRequiresSource(t *testing.T) {
	svc := newTestService(newMemStore())
	svc.Rules["hooked"] = Rule{Action: "hooked", Points: 10, Verification: VerifyWebhook}
	if _, err := svc.Award(context.Background(), "u1", "hooked", ""); !errors.Is(err, ErrMissingSourceID) {
		t.Fatalf("expected ErrMissingSourceID, got %v", err)
	}
}
