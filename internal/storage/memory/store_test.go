package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/dmehra2102/agro-marketplace/internal/cart/domain"
	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

func TestSeed(t *testing.T) {
	s := NewStore()
	n, err := s.Seed(strings.NewReader(`[
		{"id":"cafe","producer_id":"finca-a","name":"Café","price":"12.5","stock":30,"unit":"kg","available":true},
		{"id":"panela","producer_id":"finca-b","name":"Panela","price":"4","stock":0,"unit":"bloque","available":false}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p, ok := s.Product("cafe")
	require.True(t, ok)
	assert.Equal(t, "12.5", p.Price.String())
	assert.True(t, p.Available)

	_, err = s.Seed(strings.NewReader(`[{"id":"x","stock":1}]`))
	assert.Error(t, err)
	_, err = s.Seed(strings.NewReader(`[{"id":"x","producer_id":"p","price":"0","stock":1}]`))
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = s.Seed(strings.NewReader(`[{"id":"x","producer_id":"p","price":"0.004","stock":1}]`))
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument, "rounds to zero")
	_, ok = s.Product("x")
	assert.False(t, ok)
	_, err = s.Seed(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestProductPricesKeptToCents(t *testing.T) {
	s := NewStore()
	s.PutProduct(catalogdomain.Product{ID: "miel", ProducerID: "p", Price: decimal.RequireFromString("3.335"), Stock: 9, Available: true})

	p, ok := s.Product("miel")
	require.True(t, ok)
	assert.Equal(t, "3.34", p.Price.String())

	ctx := context.Background()
	c, err := s.Carts().Update(ctx, "ana", func(c *cartdomain.Cart) error { return c.Add("miel", 3, p.Price) })
	require.NoError(t, err)
	assert.Equal(t, "10.02", c.Total().String())
}

func TestCartVersionsAdvance(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	add := func(c *cartdomain.Cart) error { return c.Set("x", 1) }

	_, err := s.Carts().Update(ctx, "ana", add)
	assert.ErrorIs(t, err, apperr.ErrItemNotFound, "failed updates persist nothing")
	c, err := s.Carts().Get(ctx, "ana")
	require.NoError(t, err)
	assert.True(t, c.UpdatedAt.IsZero())

	var last time.Time
	for i := 0; i < 50; i++ {
		c, err := s.Carts().Update(ctx, "ana", func(c *cartdomain.Cart) error { return c.Add("x", 1, c.Total()) })
		require.NoError(t, err)
		assert.True(t, c.UpdatedAt.After(last))
		last = c.UpdatedAt
	}
}

func TestOutboxDrainsOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	s.events = append(s.events, outbox.Message{Type: "A"}, outbox.Message{Type: "B"}, outbox.Message{Type: "C"})
	ob := s.Outbox()

	batch, err := ob.LockBatch(ctx, "r", 2, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(1), batch[0].ID)

	require.NoError(t, ob.MarkSent(ctx, []int64{1}))
	require.NoError(t, ob.MarkFailed(ctx, 2, "boom"))

	batch, err = ob.LockBatch(ctx, "r", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "C", batch[0].Type)

	batch, err = ob.LockBatch(ctx, "r", 10, time.Second)
	require.NoError(t, err)
	assert.Empty(t, batch)
}
