package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/luvbricks/backend-store/internal/cart"
	"github.com/luvbricks/backend-store/internal/catalog"
	"github.com/luvbricks/backend-store/internal/rewards"
)

type memCartStore struct {
	m map[string]cart.Cart
}

func (s *memCartStore) Load(_ context.Context, id string) (cart.Cart, error) {
	c, ok := s.m[id]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	return c, nil
}

func (s *memCartStore) Save(_ context.Context, c cart.Cart) error {
	s.m[c.ID] = c
	return nil
}

func (s *memCartStore) Delete(_ context.Context, id string) error {
	delete(s.m, id)
	return nil
}

type fakeOrderStore struct {
	insertErr error
	inserts   int
	gotOrder  Order
	gotDebit  *rewards.Entry
	stored    Order
	getErr    error
}

func (f *fakeOrderStore) Insert(_ context.Context, o Order, debit *rewards.Entry) error {
	f.inserts++
	f.gotOrder = o
	f.gotDebit = debit
	return f.insertErr
}

func (f *fakeOrderStore) ListByUser(context.Context, string) ([]Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) Get(context.Context, string, string) (Order, error) {
	if f.getErr != nil {
		return Order{}, f.getErr
	}
	return f.stored, nil
}

// stubLedger satisfies rewards.Store for balance reads and records any
// insert that happens outside an order transaction.
type stubLedger struct {
	balance int64
	inserts int
}

func (s *stubLedger) FindByUniqueKey(context.Context, string) (rewards.Entry, error) {
	return rewards.Entry{}, rewards.ErrEntryNotFound
}
func (s *stubLedger) CountPosted(context.Context, string, string) (int, error) { return 0, nil }
func (s *stubLedger) CountSince(context.Context, string, string, time.Time) (int, error) {
	return 0, nil
}
func (s *stubLedger) Insert(context.Context, rewards.Entry) (int64, error) {
	s.inserts++
	return s.balance, nil
}
func (s *stubLedger) MarkPosted(context.Context, string) (rewards.Entry, int64, error) {
	return rewards.Entry{}, 0, nil
}
func (s *stubLedger) Balance(context.Context, string) (int64, error) { return s.balance, nil }
func (s *stubLedger) CompletedActions(context.Context, string) ([]string, error) {
	return nil, nil
}

type fakeProducts struct {
	products map[string]catalog.Product
}

func (f fakeProducts) GetByID(_ context.Context, id string) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func newPlaceService(orders *fakeOrderStore, ledger *stubLedger) (*Service, *memCartStore) {
	store := &memCartStore{m: map[string]cart.Cart{}}
	svc := &Service{
		Orders:  orders,
		Carts:   cart.NewService(store, 99),
		Engine:  NewEngine(),
		Rewards: &rewards.Service{Store: ledger},
		TaxBps:  func(string) int { return 700 },
		Log:     zerolog.Nop(),
	}
	return svc, store
}

func seedCart(t *testing.T, svc *Service) cart.Cart {
	t.Helper()
	ctx := context.Background()
	c, err := svc.Carts.Create(ctx)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	c, err = svc.Carts.Add(ctx, c.ID, cart.Item{
		ProductID:      "p1",
		Name:           "Wheel Loader",
		Tier:           1,
		UnitPriceCents: 2000,
		Qty:            3,
		WeightLb:       0.5,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	return c
}

func shipTo() Address {
	return Address{Name: "Ada", Line1: "1 Brick Ln", City: "Indianapolis", State: "IN", Zip: "46201"}
}

func TestPlaceWritesDebitWithOrder(t *testing.T) {
	orders := &fakeOrderStore{}
	ledger := &stubLedger{balance: 300}
	svc, _ := newPlaceService(orders, ledger)
	c := seedCart(t, svc)

	order, err := svc.Place(context.Background(), "u1", PlaceInput{
		CartID:          c.ID,
		RequestedPoints: 150,
		ShipTo:          shipTo(),
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if orders.gotDebit == nil {
		t.Fatal("redemption debit must ride with the order write")
	}
	if orders.gotDebit.Points != -150 {
		t.Fatalf("debit points: got %d", orders.gotDebit.Points)
	}
	if want := "order_redeem:" + order.ID; orders.gotDebit.UniqueKey != want {
		t.Fatalf("debit key: got %q want %q", orders.gotDebit.UniqueKey, want)
	}
	if orders.gotDebit.Status != rewards.StatusPosted {
		t.Fatalf("debit status: got %q", orders.gotDebit.Status)
	}
	if orders.gotOrder.RedeemCents != 500 || orders.gotOrder.GrandTotalCents != 6807 {
		t.Fatalf("order totals: %+v", orders.gotOrder)
	}
	if ledger.inserts != 0 {
		t.Fatalf("no ledger writes may bypass the order transaction, saw %d", ledger.inserts)
	}

	if _, err := svc.Carts.Get(context.Background(), c.ID); !errors.Is(err, cart.ErrNotFound) {
		t.Fatalf("cart should be cleared after checkout, got %v", err)
	}
}

func TestPlaceFailedWriteLeavesNoSideEffects(t *testing.T) {
	orders := &fakeOrderStore{insertErr: errors.New("write failed")}
	ledger := &stubLedger{balance: 300}
	svc, _ := newPlaceService(orders, ledger)
	c := seedCart(t, svc)

	_, err := svc.Place(context.Background(), "u1", PlaceInput{
		CartID:          c.ID,
		RequestedPoints: 150,
		ShipTo:          shipTo(),
	})
	if err == nil {
		t.Fatal("expected place to fail")
	}

	got, err := svc.Carts.Get(context.Background(), c.ID)
	if err != nil || len(got.Items) != 1 {
		t.Fatalf("cart must survive a failed order write: %v %+v", err, got)
	}
	if ledger.inserts != 0 {
		t.Fatalf("no points may move when the order write fails, saw %d inserts", ledger.inserts)
	}
}

func TestPlaceWithoutRedemptionHasNoDebit(t *testing.T) {
	orders := &fakeOrderStore{}
	svc, _ := newPlaceService(orders, &stubLedger{})
	c := seedCart(t, svc)

	if _, err := svc.Place(context.Background(), "u1", PlaceInput{CartID: c.ID, ShipTo: shipTo()}); err != nil {
		t.Fatalf("place: %v", err)
	}
	if orders.gotDebit != nil {
		t.Fatalf("unexpected debit: %+v", orders.gotDebit)
	}
}

func TestReorderRebuildsCartAtCurrentPrices(t *testing.T) {
	orders := &fakeOrderStore{stored: Order{
		ID:     "o1",
		UserID: "u1",
		Items: []OrderItem{
			{ProductID: "p1", Name: "Wheel Loader", UnitPriceCents: 1499, Qty: 2},
			{ProductID: "retired", Name: "Gone Set", UnitPriceCents: 4999, Qty: 1},
		},
	}}
	svc, _ := newPlaceService(orders, &stubLedger{})
	svc.Products = fakeProducts{products: map[string]catalog.Product{
		"p1": {ID: "p1", Name: "Wheel Loader", PriceCents: 1599, WeightLb: 0.35, Tier: 1},
	}}

	c, err := svc.Reorder(context.Background(), "u1", "o1")
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if len(c.Items) != 1 {
		t.Fatalf("retired products must be skipped: %+v", c.Items)
	}
	row := c.Items[0]
	if row.ProductID != "p1" || row.Qty != 2 || row.UnitPriceCents != 1599 {
		t.Fatalf("reordered row: %+v", row)
	}
}

func TestReorderUnknownOrder(t *testing.T) {
	orders := &fakeOrderStore{getErr: ErrOrderNotFound}
	svc, _ := newPlaceService(orders, &stubLedger{})

	if _, err := svc.Reorder(context.Background(), "u1", "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSaveShipToRequiresDestination(t *testing.T) {
	svc, _ := newPlaceService(&fakeOrderStore{}, &stubLedger{})

	err := svc.SaveShipTo(context.Background(), "u1", Address{Name: "Ada", Line1: "1 Brick Ln", City: "Indy"})
	if !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected ErrMissingAddress, got %v", err)
	}
}
