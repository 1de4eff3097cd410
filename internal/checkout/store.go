package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/luvbricks/backend-store/internal/rewards"
)

// ErrNoSavedAddress indicates the user has no saved shipping address.
var ErrNoSavedAddress = errors.New("no saved shipping address")

// OrderStore persists orders. Insert must write the order, its line
// items and the optional redemption debit in one transaction: a failed
// debit must leave no order behind.
type OrderStore interface {
	Insert(ctx context.Context, o Order, debit *rewards.Entry) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	Get(ctx context.Context, userID, orderID string) (Order, error)
}

// Ledger posts point entries inside an order transaction.
type Ledger interface {
	ApplyTx(ctx context.Context, tx pgx.Tx, entry rewards.Entry) (int64, error)
}

// PGOrderStore is the Postgres order store.
type PGOrderStore struct {
	Pool   *pgxpool.Pool
	Ledger Ledger
}

// Insert writes the order, its items and the redemption debit under one
// commit. A duplicate debit key means a retry already paid: the order
// write proceeds and the ledger is left alone.
func (s *PGOrderStore) Insert(ctx context.Context, o Order, debit *rewards.Entry) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, status,
			ship_name, ship_line1, ship_line2, ship_city, ship_state, ship_zip,
			msrp_subtotal_cents, redeem_points, redeem_cents, bundle_discount_cents,
			tax_cents, shipping_cents, grand_total_cents, points_earned, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		o.ID, o.UserID, o.Status,
		o.ShipTo.Name, o.ShipTo.Line1, o.ShipTo.Line2, o.ShipTo.City, o.ShipTo.State, o.ShipTo.Zip,
		o.MsrpSubtotalCents, o.RedeemPoints, o.RedeemCents, o.BundleDiscountCents,
		o.TaxCents, o.ShippingCents, o.GrandTotalCents, o.PointsEarned, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, name, set_number, unit_price_cents, qty)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, o.ID, it.ProductID, it.Name, it.SetNumber, it.UnitPriceCents, it.Qty)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if debit != nil && s.Ledger != nil {
		if _, err := s.Ledger.ApplyTx(ctx, tx, *debit); err != nil && !errors.Is(err, rewards.ErrDuplicateKey) {
			return fmt.Errorf("debit redeemed points: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// ListByUser returns the user's orders, newest first, without line items.
func (s *PGOrderStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, user_id, status,
			ship_name, ship_line1, COALESCE(ship_line2, ''), ship_city, ship_state, ship_zip,
			msrp_subtotal_cents, redeem_points, redeem_cents, bundle_discount_cents,
			tax_cents, shipping_cents, grand_total_cents, points_earned, created_at
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Get loads one order with its line items, scoped to the user.
func (s *PGOrderStore) Get(ctx context.Context, userID, orderID string) (Order, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, status,
			ship_name, ship_line1, COALESCE(ship_line2, ''), ship_city, ship_state, ship_zip,
			msrp_subtotal_cents, redeem_points, redeem_cents, bundle_discount_cents,
			tax_cents, shipping_cents, grand_total_cents, points_earned, created_at
		 FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT id, product_id, name, set_number, unit_price_cents, qty
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Name, &it.SetNumber, &it.UnitPriceCents, &it.Qty); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// ShipToStore persists each user's saved shipping address.
type ShipToStore interface {
	Save(ctx context.Context, userID string, a Address) error
	Load(ctx context.Context, userID string) (Address, error)
}

// PGShipToStore keeps one saved address per user.
type PGShipToStore struct {
	Pool *pgxpool.Pool
}

// Save upserts the user's address.
func (s *PGShipToStore) Save(ctx context.Context, userID string, a Address) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO user_addresses (user_id, name, line1, line2, city, state, zip, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, now())
		 ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name, line1 = EXCLUDED.line1, line2 = EXCLUDED.line2,
			city = EXCLUDED.city, state = EXCLUDED.state, zip = EXCLUDED.zip,
			updated_at = now()`,
		userID, a.Name, a.Line1, a.Line2, a.City, a.State, a.Zip)
	return err
}

// Load returns the user's saved address, ErrNoSavedAddress if none.
func (s *PGShipToStore) Load(ctx context.Context, userID string) (Address, error) {
	var a Address
	err := s.Pool.QueryRow(ctx,
		`SELECT name, line1, COALESCE(line2, ''), city, state, zip
		 FROM user_addresses WHERE user_id = $1`, userID).
		Scan(&a.Name, &a.Line1, &a.Line2, &a.City, &a.State, &a.Zip)
	if errors.Is(err, pgx.ErrNoRows) {
		return Address{}, ErrNoSavedAddress
	}
	return a, err
}

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row orderScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status,
		&o.ShipTo.Name, &o.ShipTo.Line1, &o.ShipTo.Line2, &o.ShipTo.City, &o.ShipTo.State, &o.ShipTo.Zip,
		&o.MsrpSubtotalCents, &o.RedeemPoints, &o.RedeemCents, &o.BundleDiscountCents,
		&o.TaxCents, &o.ShippingCents, &o.GrandTotalCents, &o.PointsEarned, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}
