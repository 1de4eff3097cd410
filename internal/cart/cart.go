package cart

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMaxQtyPerRow caps how many units a single cart row can hold.
const DefaultMaxQtyPerRow = 99

// Item is a cart row. The row id is distinct from the product id.
type Item struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	SetNumber      string  `json:"setNumber"`
	Name           string  `json:"name"`
	ImageURL       string  `json:"imageUrl"`
	Tier           int     `json:"tier"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	Qty            int     `json:"qty"`
	WeightLb       float64 `json:"weightLb"`
}

// Cart is an ordered collection of rows. Insertion order matters for
// display only, never for pricing.
type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns an empty cart with a fresh identifier.
func New(now time.Time) Cart {
	return Cart{ID: uuid.NewString(), UpdatedAt: now}
}

// Upsert adds the item, merging by product id: an existing row has its
// quantity incremented (clamped to 1..maxQty), otherwise a new row is
// appended. Row ids are always generated here; any id on the incoming
// item is discarded. Returns a new cart value.
func Upsert(c Cart, item Item, maxQty int, now time.Time) Cart {
	if maxQty <= 0 {
		maxQty = DefaultMaxQtyPerRow
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)

	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Qty = clampQty(items[i].Qty+item.Qty, maxQty)
			return Cart{ID: c.ID, Items: items, UpdatedAt: now}
		}
	}

	row := item
	row.ID = uuid.NewString()
	row.Qty = clampQty(row.Qty, maxQty)
	return Cart{ID: c.ID, Items: append(items, row), UpdatedAt: now}
}

// SetQuantity replaces a row's quantity. A quantity of zero or less
// deletes the row rather than storing zero.
func SetQuantity(c Cart, rowID string, qty int, now time.Time) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ID == rowID {
			if qty <= 0 {
				continue
			}
			it.Qty = qty
		}
		items = append(items, it)
	}
	return Cart{ID: c.ID, Items: items, UpdatedAt: now}
}

// Remove deletes a row unconditionally. Removing an absent row is a no-op.
func Remove(c Cart, rowID string, now time.Time) Cart {
	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.ID == rowID {
			continue
		}
		items = append(items, it)
	}
	return Cart{ID: c.ID, Items: items, UpdatedAt: now}
}

// Clear empties the cart.
func Clear(c Cart, now time.Time) Cart {
	return Cart{ID: c.ID, UpdatedAt: now}
}

func clampQty(qty, maxQty int) int {
	if qty < 1 {
		return 1
	}
	if qty > maxQty {
		return maxQty
	}
	return qty
}
