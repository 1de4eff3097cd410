package cart

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testItem(productID string, qty int) Item {
	return Item{
		ProductID:      productID,
		Name:           "Wheel Loader",
		Tier:           1,
		UnitPriceCents: 1499,
		Qty:            qty,
		WeightLb:       0.35,
	}
}

func TestUpsertMergesByProduct(t *testing.T) {
	c := New(testNow)
	c = Upsert(c, testItem("p1", 2), 99, testNow)
	if len(c.Items) != 1 || c.Items[0].Qty != 2 {
		t.Fatalf("first add: %+v", c.Items)
	}
	rowID := c.Items[0].ID
	if rowID == "" {
		t.Fatal("row id should be generated")
	}

	c = Upsert(c, testItem("p1", 3), 99, testNow)
	if len(c.Items) != 1 {
		t.Fatalf("merge should not add a row: %+v", c.Items)
	}
	if c.Items[0].Qty != 5 || c.Items[0].ID != rowID {
		t.Fatalf("merge: %+v", c.Items[0])
	}

	c = Upsert(c, testItem("p2", 1), 99, testNow)
	if len(c.Items) != 2 {
		t.Fatalf("new product should append: %+v", c.Items)
	}
}

func TestUpsertClampsQuantity(t *testing.T) {
	c := New(testNow)
	c = Upsert(c, testItem("p1", 250), 99, testNow)
	if c.Items[0].Qty != 99 {
		t.Fatalf("clamp high: got %d", c.Items[0].Qty)
	}

	c = New(testNow)
	c = Upsert(c, testItem("p1", 0), 99, testNow)
	if c.Items[0].Qty != 1 {
		t.Fatalf("clamp low: got %d", c.Items[0].Qty)
	}

	c = Upsert(c, testItem("p1", 98), 99, testNow)
	c = Upsert(c, testItem("p1", 98), 99, testNow)
	if c.Items[0].Qty != 99 {
		t.Fatalf("merged clamp: got %d", c.Items[0].Qty)
	}
}

func TestUpsertIgnoresSuppliedRowID(t *testing.T) {
	item := testItem("p1", 1)
	item.ID = "chosen-by-client"

	c := Upsert(New(testNow), item, 99, testNow)
	if c.Items[0].ID == "chosen-by-client" || c.Items[0].ID == "" {
		t.Fatalf("row id must be generated server-side, got %q", c.Items[0].ID)
	}
}

func TestSetQuantityZeroDeletesRow(t *testing.T) {
	c := New(testNow)
	c = Upsert(c, testItem("p1", 2), 99, testNow)
	c = Upsert(c, testItem("p2", 1), 99, testNow)
	rowID := c.Items[0].ID

	c = SetQuantity(c, rowID, 7, testNow)
	if c.Items[0].Qty != 7 {
		t.Fatalf("set qty: %+v", c.Items[0])
	}

	c = SetQuantity(c, rowID, 0, testNow)
	if len(c.Items) != 1 || c.Items[0].ProductID != "p2" {
		t.Fatalf("zero should delete the row: %+v", c.Items)
	}
}

func TestRemoveAndClear(t *testing.T) {
	c := New(testNow)
	c = Upsert(c, testItem("p1", 1), 99, testNow)
	c = Upsert(c, testItem("p2", 1), 99, testNow)

	c = Remove(c, c.Items[0].ID, testNow)
	if len(c.Items) != 1 {
		t.Fatalf("remove: %+v", c.Items)
	}

	// Removing an unknown row changes nothing.
	c = Remove(c, "missing", testNow)
	if len(c.Items) != 1 {
		t.Fatalf("remove missing: %+v", c.Items)
	}

	id := c.ID
	c = Clear(c, testNow)
	if len(c.Items) != 0 || c.ID != id {
		t.Fatalf("clear: %+v", c)
	}
}

func TestMutationsDoNotShareBackingArrays(t *testing.T) {
	c := New(testNow)
	c = Upsert(c, testItem("p1", 2), 99, testNow)

	merged := Upsert(c, testItem("p1", 3), 99, testNow)
	if c.Items[0].Qty != 2 {
		t.Fatalf("original cart mutated: %+v", c.Items[0])
	}
	if merged.Items[0].Qty != 5 {
		t.Fatalf("merged cart: %+v", merged.Items[0])
	}
}
