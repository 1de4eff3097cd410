package cart

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, _ := newTestStore(t)
	svc := NewService(store, 99)
	svc.Now = func() time.Time { return testNow }
	return svc
}

func TestServiceAddValidates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := []Item{
		{ProductID: "", Tier: 1, UnitPriceCents: 100, Qty: 1},
		{ProductID: "p1", Tier: 0, UnitPriceCents: 100, Qty: 1},
		{ProductID: "p1", Tier: 6, UnitPriceCents: 100, Qty: 1},
		{ProductID: "p1", Tier: 1, UnitPriceCents: -1, Qty: 1},
		{ProductID: "p1", Tier: 1, UnitPriceCents: 100, Qty: 0},
		{ProductID: "p1", Tier: 1, UnitPriceCents: 100, Qty: 1, WeightLb: -0.5},
	}
	for i, item := range bad {
		if _, err := svc.Add(ctx, c.ID, item); !errors.Is(err, ErrInvalidItem) {
			t.Fatalf("item %d: expected ErrInvalidItem, got %v", i, err)
		}
	}

	got, err := svc.Add(ctx, c.ID, testItem("p1", 2))
	if err != nil {
		t.Fatalf("valid add: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Qty != 2 {
		t.Fatalf("add result: %+v", got.Items)
	}
}

func TestServiceLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c, err = svc.Add(ctx, c.ID, testItem("p1", 2))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	rowID := c.Items[0].ID

	c, err = svc.SetQuantity(ctx, c.ID, rowID, 5)
	if err != nil {
		t.Fatalf("set qty: %v", err)
	}
	if c.Items[0].Qty != 5 {
		t.Fatalf("set qty: %+v", c.Items[0])
	}

	// Quantity zero removes the row and the change persists.
	c, err = svc.SetQuantity(ctx, c.ID, rowID, 0)
	if err != nil {
		t.Fatalf("set qty zero: %v", err)
	}
	if len(c.Items) != 0 {
		t.Fatalf("row should be gone: %+v", c.Items)
	}
	reloaded, err := svc.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Items) != 0 {
		t.Fatalf("persisted rows: %+v", reloaded.Items)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
