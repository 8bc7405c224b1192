package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartapp "github.com/dmehra2102/agro-marketplace/internal/cart/application"
	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/internal/identity"
	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/internal/storage/memory"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

type fixture struct {
	store    *memory.Store
	carts    *cartapp.Service
	checkout *Service
}

func newFixture(t *testing.T, products ...catalogdomain.Product) fixture {
	t.Helper()
	store := memory.NewStore()
	for _, p := range products {
		store.PutProduct(p)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fixture{
		store:    store,
		carts:    cartapp.NewService(log, store.Carts(), store.Catalog()),
		checkout: NewService(log, store.Carts(), store.Catalog(), store.Committer()),
	}
}

func product(id, producer string, price int64, stock int) catalogdomain.Product {
	return catalogdomain.Product{ID: id, ProducerID: producer, Price: decimal.NewFromInt(price), Stock: stock, Unit: "kg", Available: true}
}

var req = Request{DeliveryAddress: "Calle 1", PaymentMethod: "efectivo"}

func stock(t *testing.T, s *memory.Store, id string) int {
	t.Helper()
	p, ok := s.Product(id)
	require.True(t, ok)
	return p.Stock
}

func TestCheckoutSplitsByProducer(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 5), product("B", "P2", 20, 1))
	ctx := context.Background()
	c := identity.Consumer("c-1")

	_, err := f.carts.AddItem(ctx, c, "A", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c, "B", 1)
	require.NoError(t, err)

	res, err := f.checkout.Checkout(ctx, c, req)
	require.NoError(t, err)
	require.Len(t, res.OrderIDs, 2)

	assert.Equal(t, 3, stock(t, f.store, "A"))
	assert.Equal(t, 0, stock(t, f.store, "B"))

	byProducer := map[string]orderdomain.Order{}
	for _, id := range res.OrderIDs {
		o, err := f.store.Orders().Get(ctx, id)
		require.NoError(t, err)
		byProducer[o.ProducerID] = o
	}
	require.Contains(t, byProducer, "P1")
	require.Contains(t, byProducer, "P2")
	assert.True(t, decimal.NewFromInt(20).Equal(byProducer["P1"].Total))
	assert.True(t, decimal.NewFromInt(20).Equal(byProducer["P2"].Total))
	for _, o := range byProducer {
		assert.Equal(t, orderdomain.StatusPending, o.Status)
		assert.Equal(t, "Calle 1", o.DeliveryAddress)
		assert.Equal(t, "efectivo", o.PaymentMethod)
	}

	v, err := f.carts.Get(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	placed := 0
	for _, m := range f.store.Events() {
		if m.Type == orderdomain.EventOrderPlaced {
			placed++
		}
	}
	assert.Equal(t, 2, placed)

	// a second consumer wanting B now finds it sold out
	other := identity.Consumer("c-2")
	_, err = f.carts.AddItem(ctx, other, "B", 1)
	require.NoError(t, err)
	_, err = f.checkout.Checkout(ctx, other, req)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 2, f.store.OrderCount())
}

func TestCheckoutUsesLivePrice(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 5))
	ctx := context.Background()
	c := identity.Consumer("c-1")

	_, err := f.carts.AddItem(ctx, c, "A", 2)
	require.NoError(t, err)
	f.store.PutProduct(product("A", "P1", 12, 5))

	res, err := f.checkout.Checkout(ctx, c, req)
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.True(t, decimal.NewFromInt(24).Equal(res.Orders[0].Total))

	// later catalog changes never touch the order
	f.store.PutProduct(product("A", "P1", 99, 5))
	o, err := f.store.Orders().Get(ctx, res.OrderIDs[0])
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(24).Equal(o.Total))
	assert.True(t, decimal.NewFromInt(12).Equal(o.Items[0].UnitPrice))
}

func TestCheckoutFailuresHaveNoSideEffects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *memory.Store)
		want   error
	}{
		{"removed", func(s *memory.Store) { s.DeleteProduct("B") }, apperr.ErrProductRemoved},
		{"unavailable", func(s *memory.Store) {
			p, _ := s.Product("B")
			p.Available = false
			s.PutProduct(p)
		}, apperr.ErrProductUnavailable},
		{"short stock", func(s *memory.Store) {
			p, _ := s.Product("B")
			p.Stock = 1
			s.PutProduct(p)
		}, apperr.ErrInsufficientStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, product("A", "P1", 10, 5), product("B", "P2", 20, 4))
			ctx := context.Background()
			c := identity.Consumer("c-1")
			_, err := f.carts.AddItem(ctx, c, "A", 2)
			require.NoError(t, err)
			_, err = f.carts.AddItem(ctx, c, "B", 3)
			require.NoError(t, err)
			before, err := f.carts.Get(ctx, c)
			require.NoError(t, err)

			tt.mutate(f.store)
			_, err = f.checkout.Checkout(ctx, c, req)
			require.ErrorIs(t, err, tt.want)

			assert.Equal(t, 5, stock(t, f.store, "A"))
			assert.Zero(t, f.store.OrderCount())
			assert.Empty(t, f.store.Events())
			after, err := f.carts.Get(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, before.Items, after.Items)
		})
	}
}

func TestCheckoutInsufficientStockReportsAvailable(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 3))
	ctx := context.Background()
	c := identity.Consumer("c-1")
	_, err := f.carts.AddItem(ctx, c, "A", 5)
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, c, req)
	e := apperr.From(err)
	require.Equal(t, apperr.CodeInsufficientStock, e.Code)
	assert.Equal(t, "A", e.ProductID)
	require.NotNil(t, e.Available)
	assert.Equal(t, 3, *e.Available)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 3))
	ctx := context.Background()

	_, err := f.checkout.Checkout(ctx, identity.Consumer("c-1"), req)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	_, err = f.checkout.Checkout(ctx, identity.Producer("P1"), req)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.checkout.Checkout(ctx, identity.Consumer("c-1"), Request{PaymentMethod: "efectivo"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestOversizedQuantityNeverReachesCheckout(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 5))
	ctx := context.Background()
	c := identity.Consumer("c-1")

	_, err := f.carts.AddItem(ctx, c, "A", math.MaxInt)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
	_, err = f.carts.AddItem(ctx, c, "A", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c, "A", math.MaxInt32)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	res, err := f.checkout.Checkout(ctx, c, req)
	require.NoError(t, err)
	require.Len(t, res.Orders, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(res.Orders[0].Total))
	assert.Equal(t, 3, stock(t, f.store, "A"))
}

func TestCheckoutConflictWhenCartChangesMidway(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 9))
	ctx := context.Background()
	c := identity.Consumer("c-1")
	_, err := f.carts.AddItem(ctx, c, "A", 1)
	require.NoError(t, err)

	racing := &racingCommitter{inner: f.store.Committer(), before: func() {
		_, err := f.carts.AddItem(ctx, c, "A", 1)
		require.NoError(t, err)
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(log, f.store.Carts(), f.store.Catalog(), racing)

	_, err = svc.Checkout(ctx, c, req)
	require.ErrorIs(t, err, apperr.ErrStateConflict)
	assert.True(t, apperr.From(err).Retryable)
	assert.Equal(t, 9, stock(t, f.store, "A"))
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	const consumers = 40
	const initial = 7
	f := newFixture(t, product("A", "P1", 10, initial))
	ctx := context.Background()

	for i := 0; i < consumers; i++ {
		_, err := f.carts.AddItem(ctx, identity.Consumer(fmt.Sprintf("c-%d", i)), "A", 1)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	var ok, short atomic.Int32
	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.checkout.Checkout(ctx, identity.Consumer(fmt.Sprintf("c-%d", i)), req)
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.CodeOf(err) == apperr.CodeInsufficientStock:
				short.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(initial), ok.Load())
	assert.Equal(t, int32(consumers-initial), short.Load())
	assert.Equal(t, 0, stock(t, f.store, "A"))
	assert.Equal(t, initial, f.store.OrderCount())
}

func TestCheckoutStockRaceAbortsWholePlacement(t *testing.T) {
	f := newFixture(t, product("A", "P1", 10, 5), product("B", "P2", 20, 2))
	ctx := context.Background()
	c := identity.Consumer("c-1")
	_, err := f.carts.AddItem(ctx, c, "A", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c, "B", 2)
	require.NoError(t, err)

	racing := &racingCommitter{inner: f.store.Committer(), before: func() {
		p, _ := f.store.Product("B")
		p.Stock = 1
		f.store.PutProduct(p)
	}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(log, f.store.Carts(), f.store.Catalog(), racing)

	_, err = svc.Checkout(ctx, c, req)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.True(t, apperr.From(err).Retryable)
	assert.Equal(t, 5, stock(t, f.store, "A"), "no partial decrement")
	assert.Zero(t, f.store.OrderCount())

	v, err := f.carts.Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 4, v.ItemCount)
}
