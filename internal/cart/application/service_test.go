package application

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/internal/identity"
	"github.com/dmehra2102/agro-marketplace/internal/storage/memory"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(catalogdomain.Product{ID: "tomate", ProducerID: "P1", Price: decimal.NewFromInt(10), Stock: 5, Available: true})
	store.PutProduct(catalogdomain.Product{ID: "papa", ProducerID: "P2", Price: decimal.RequireFromString("2.5"), Stock: 0, Available: true})
	store.PutProduct(catalogdomain.Product{ID: "cafe", ProducerID: "P2", Price: decimal.NewFromInt(30), Stock: 9, Available: false})
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(log, store.Carts(), store.Catalog()), store
}

func TestGetReturnsEmptyCart(t *testing.T) {
	svc, _ := newService(t)
	v, err := svc.Get(context.Background(), identity.Consumer("c-1"))
	require.NoError(t, err)
	assert.Empty(t, v.Items)
	assert.Zero(t, v.ItemCount)
	assert.True(t, v.Total.IsZero())
}

func TestAddItem(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := identity.Consumer("c-1")

	_, err := svc.AddItem(ctx, c, "tomate", 2)
	require.NoError(t, err)
	v, err := svc.AddItem(ctx, c, "tomate", 1)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 3, v.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(30).Equal(v.Total))

	// stock is not checked at add time
	v, err = svc.AddItem(ctx, c, "papa", 4)
	require.NoError(t, err)
	assert.Equal(t, 7, v.ItemCount)
	assert.True(t, decimal.NewFromInt(40).Equal(v.Total))
}

func TestAddItemFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := identity.Consumer("c-1")

	tests := []struct {
		name    string
		actor   identity.Actor
		product string
		qty     int
		want    error
	}{
		{"zero quantity", c, "tomate", 0, apperr.ErrInvalidQuantity},
		{"unavailable", c, "cafe", 1, apperr.ErrProductUnavailable},
		{"unknown product", c, "nope", 1, apperr.ErrProductRemoved},
		{"producer has no cart", identity.Producer("P1"), "tomate", 1, apperr.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, tt.actor, tt.product, tt.qty)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	v, err := svc.Get(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestUpdateAndRemove(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	c := identity.Consumer("c-1")

	_, err := svc.UpdateItem(ctx, c, "tomate", 3)
	assert.ErrorIs(t, err, apperr.ErrItemNotFound)

	_, err = svc.AddItem(ctx, c, "tomate", 1)
	require.NoError(t, err)
	v, err := svc.UpdateItem(ctx, c, "tomate", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, v.ItemCount)

	v, err = svc.UpdateItem(ctx, c, "tomate", 0)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	_, err = svc.RemoveItem(ctx, c, "tomate")
	assert.NoError(t, err, "removing an absent item is not an error")
}

func TestCartsAreIsolatedAndClearable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a, b := identity.Consumer("a"), identity.Consumer("b")

	_, err := svc.AddItem(ctx, a, "tomate", 1)
	require.NoError(t, err)
	vb, err := svc.Get(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, vb.Items)

	require.NoError(t, svc.Clear(ctx, a))
	require.NoError(t, svc.Clear(ctx, a))
	va, err := svc.Get(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, va.Items)
}
