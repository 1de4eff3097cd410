package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidItem flags a cart mutation with out-of-range fields.
var ErrInvalidItem = errors.New("invalid cart item")

// Service validates cart mutations and persists snapshots.
type Service struct {
	Store  Store
	MaxQty int
	Now    func() time.Time
}

// NewService constructs a cart service with a real clock.
func NewService(store Store, maxQty int) *Service {
	return &Service{Store: store, MaxQty: maxQty, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create opens a fresh cart and persists it.
func (s *Service) Create(ctx context.Context) (Cart, error) {
	c := New(s.now())
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Get loads an existing cart.
func (s *Service) Get(ctx context.Context, id string) (Cart, error) {
	return s.Store.Load(ctx, id)
}

// Add validates the item and merges it into the cart.
func (s *Service) Add(ctx context.Context, id string, item Item) (Cart, error) {
	if err := validateItem(item); err != nil {
		return Cart{}, err
	}
	c, err := s.Store.Load(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	c = Upsert(c, item, s.MaxQty, s.now())
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// SetQuantity replaces a row's quantity; zero or less removes the row.
func (s *Service) SetQuantity(ctx context.Context, id, rowID string, qty int) (Cart, error) {
	if s.MaxQty > 0 && qty > s.MaxQty {
		qty = s.MaxQty
	}
	c, err := s.Store.Load(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	c = SetQuantity(c, rowID, qty, s.now())
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Remove deletes a row from the cart.
func (s *Service) Remove(ctx context.Context, id, rowID string) (Cart, error) {
	c, err := s.Store.Load(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	c = Remove(c, rowID, s.now())
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

// Clear empties the cart but keeps its id alive.
func (s *Service) Clear(ctx context.Context, id string) (Cart, error) {
	c, err := s.Store.Load(ctx, id)
	if err != nil {
		return Cart{}, err
	}
	c = Clear(c, s.now())
	if err := s.Store.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return c, nil
}

func validateItem(item Item) error {
	if strings.TrimSpace(item.ProductID) == "" {
		return fmt.Errorf("productId is required: %w", ErrInvalidItem)
	}
	if item.Tier < 1 || item.Tier > 5 {
		return fmt.Errorf("tier %d out of range: %w", item.Tier, ErrInvalidItem)
	}
	if item.UnitPriceCents < 0 {
		return fmt.Errorf("unit price must not be negative: %w", ErrInvalidItem)
	}
	if item.Qty < 1 {
		return fmt.Errorf("qty must be at least 1: %w", ErrInvalidItem)
	}
	if item.WeightLb < 0 {
		return fmt.Errorf("weight must not be negative: %w", ErrInvalidItem)
	}
	return nil
}
