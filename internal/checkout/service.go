package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/luvbricks/backend-store/internal/cart"
	"github.com/luvbricks/backend-store/internal/catalog"
	"github.com/luvbricks/backend-store/internal/rewards"
)

var (
	// ErrEmptyCart rejects checkout against a cart with no rows.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound indicates no matching order for the user.
	ErrOrderNotFound = errors.New("order not found")
	// ErrMissingAddress rejects checkout without a shipping destination.
	ErrMissingAddress = errors.New("shipping address is required")
)

// Address is the shipping destination captured at checkout.
type Address struct {
	Name  string `json:"name" validate:"required"`
	Line1 string `json:"line1" validate:"required"`
	Line2 string `json:"line2,omitempty"`
	City  string `json:"city" validate:"required"`
	State string `json:"state" validate:"required,len=2"`
	Zip   string `json:"zip" validate:"required,len=5"`
}

// Order is a placed order with its frozen pricing breakdown.
type Order struct {
	ID                  string      `json:"id"`
	UserID              string      `json:"userId"`
	Status              string      `json:"status"`
	ShipTo              Address     `json:"shipTo"`
	MsrpSubtotalCents   int64       `json:"msrpSubtotalCents"`
	RedeemPoints        int64       `json:"redeemPoints"`
	RedeemCents         int64       `json:"redeemCents"`
	BundleDiscountCents int64       `json:"bundleDiscountCents"`
	TaxCents            int64       `json:"taxCents"`
	ShippingCents       int64       `json:"shippingCents"`
	GrandTotalCents     int64       `json:"grandTotalCents"`
	PointsEarned        int64       `json:"pointsEarned"`
	Items               []OrderItem `json:"items,omitempty"`
	CreatedAt           time.Time   `json:"createdAt"`
}

// OrderItem is one frozen line of a placed order.
type OrderItem struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	SetNumber      string `json:"setNumber"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Qty            int    `json:"qty"`
}

// PlaceInput is the checkout request after validation.
type PlaceInput struct {
	CartID          string
	RequestedPoints int64
	ShipTo          Address
}

// ProductSource looks up catalog entries when rebuilding a cart from a
// previous order.
type ProductSource interface {
	GetByID(ctx context.Context, id string) (catalog.Product, error)
}

// Service turns a cart into an order: it prices the cart, writes the
// order together with its redemption debit, clears the cart and defers
// the earned points to the worker.
type Service struct {
	Orders   OrderStore
	Carts    *cart.Service
	Engine   *Engine
	Rewards  *rewards.Service
	Products ProductSource
	ShipTo   ShipToStore
	Tasks    *asynq.Client
	TaxBps   func(state string) int
	Log      zerolog.Logger
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Quote prices a cart without placing an order. Guests quote with a
// zero point balance.
func (s *Service) Quote(ctx context.Context, cartID, state string, availablePoints, requestedPoints int64) (Totals, error) {
	c, err := s.Carts.Get(ctx, cartID)
	if err != nil {
		return Totals{}, err
	}
	in := TotalsInput{
		Items:           toLines(c.Items),
		AvailablePoints: availablePoints,
		RequestedPoints: requestedPoints,
		TaxRateBps:      s.taxFor(state),
	}
	return s.Engine.Totals(in)
}

// Place prices the cart and writes the order. The redemption debit
// rides in the same transaction as the order row, so a failed debit
// rolls the order back and the user keeps both points and cart.
func (s *Service) Place(ctx context.Context, userID string, in PlaceInput) (Order, error) {
	if strings.TrimSpace(in.ShipTo.State) == "" || strings.TrimSpace(in.ShipTo.Zip) == "" {
		return Order{}, ErrMissingAddress
	}
	c, err := s.Carts.Get(ctx, in.CartID)
	if err != nil {
		return Order{}, err
	}
	if len(c.Items) == 0 {
		return Order{}, ErrEmptyCart
	}

	available := int64(0)
	if in.RequestedPoints > 0 {
		available, err = s.Rewards.Balance(ctx, userID)
		if err != nil {
			return Order{}, fmt.Errorf("load point balance: %w", err)
		}
	}

	totals, err := s.Engine.Totals(TotalsInput{
		Items:           toLines(c.Items),
		AvailablePoints: available,
		RequestedPoints: in.RequestedPoints,
		TaxRateBps:      s.taxFor(in.ShipTo.State),
	})
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:                  uuid.NewString(),
		UserID:              userID,
		Status:              "placed",
		ShipTo:              in.ShipTo,
		MsrpSubtotalCents:   totals.MsrpSubtotalCents,
		RedeemPoints:        totals.AppliedRedeemPoints,
		RedeemCents:         totals.AppliedRedeemCents,
		BundleDiscountCents: totals.BundleDiscountCents,
		TaxCents:            totals.TaxCents,
		ShippingCents:       totals.Shipping.FinalCents,
		GrandTotalCents:     totals.GrandTotalCents,
		PointsEarned:        totals.PointsEarned,
		CreatedAt:           s.now(),
	}
	for _, it := range c.Items {
		order.Items = append(order.Items, OrderItem{
			ID:             uuid.NewString(),
			ProductID:      it.ProductID,
			Name:           it.Name,
			SetNumber:      it.SetNumber,
			UnitPriceCents: it.UnitPriceCents,
			Qty:            it.Qty,
		})
	}

	var debit *rewards.Entry
	if order.RedeemPoints > 0 {
		debit = &rewards.Entry{
			ID:        uuid.NewString(),
			UserID:    userID,
			Action:    rewards.ActionOrderRedeem,
			Points:    -order.RedeemPoints,
			SourceID:  order.ID,
			UniqueKey: fmt.Sprintf("%s:%s", rewards.ActionOrderRedeem, order.ID),
			Status:    rewards.StatusPosted,
			CreatedAt: order.CreatedAt,
		}
	}

	if err := s.Orders.Insert(ctx, order, debit); err != nil {
		return Order{}, err
	}

	if err := s.Carts.Store.Delete(ctx, in.CartID); err != nil {
		s.Log.Warn().Err(err).Str("cart_id", in.CartID).Msg("clear cart after checkout")
	}

	if order.PointsEarned > 0 && s.Tasks != nil {
		task, err := rewards.NewOrderPointsTask(rewards.OrderPointsPayload{
			UserID:  userID,
			OrderID: order.ID,
			Points:  order.PointsEarned,
		})
		if err != nil {
			s.Log.Error().Err(err).Str("order_id", order.ID).Msg("build order points task")
		} else if _, err := s.Tasks.EnqueueContext(ctx, task); err != nil {
			s.Log.Error().Err(err).Str("order_id", order.ID).Msg("enqueue order points")
		}
	}

	return order, nil
}

// List returns the user's orders, newest first, without line items.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

// Get loads one order with its line items, scoped to the user.
func (s *Service) Get(ctx context.Context, userID, orderID string) (Order, error) {
	return s.Orders.Get(ctx, userID, orderID)
}

// Reorder rebuilds a fresh cart from a previous order at current
// catalog prices. Items that left the catalog are skipped.
func (s *Service) Reorder(ctx context.Context, userID, orderID string) (cart.Cart, error) {
	order, err := s.Orders.Get(ctx, userID, orderID)
	if err != nil {
		return cart.Cart{}, err
	}
	c, err := s.Carts.Create(ctx)
	if err != nil {
		return cart.Cart{}, err
	}
	for _, it := range order.Items {
		p, err := s.Products.GetByID(ctx, it.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return cart.Cart{}, err
		}
		c, err = s.Carts.Add(ctx, c.ID, cart.Item{
			ProductID:      p.ID,
			SetNumber:      p.SetNumber,
			Name:           p.Name,
			ImageURL:       p.ImageURL,
			Tier:           p.Tier,
			UnitPriceCents: p.PriceCents,
			Qty:            it.Qty,
			WeightLb:       p.WeightLb,
		})
		if err != nil {
			return cart.Cart{}, err
		}
	}
	return c, nil
}

// SaveShipTo stores the user's default shipping address.
func (s *Service) SaveShipTo(ctx context.Context, userID string, a Address) error {
	if strings.TrimSpace(a.State) == "" || strings.TrimSpace(a.Zip) == "" {
		return ErrMissingAddress
	}
	return s.ShipTo.Save(ctx, userID, a)
}

// SavedShipTo returns the user's default shipping address.
func (s *Service) SavedShipTo(ctx context.Context, userID string) (Address, error) {
	return s.ShipTo.Load(ctx, userID)
}

func (s *Service) taxFor(state string) int {
	if s.TaxBps == nil {
		return 0
	}
	return s.TaxBps(strings.ToUpper(strings.TrimSpace(state)))
}

func toLines(items []cart.Item) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, Line{
			UnitPriceCents: it.UnitPriceCents,
			Qty:            it.Qty,
			WeightLb:       it.WeightLb,
		})
	}
	return lines
}
