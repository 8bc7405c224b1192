package domain

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

// MaxQuantity bounds a single line; it matches the storage column width.
const MaxQuantity = math.MaxInt32

type Item struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the single open cart of a consumer. UnitPrice is captured when an
// item is added and is advisory only; checkout reprices from the catalog.
type Cart struct {
	ConsumerID string
	Items      map[string]Item
	UpdatedAt  time.Time
}

func New(consumerID string) *Cart {
	return &Cart{ConsumerID: consumerID, Items: map[string]Item{}}
}

// Add sums qty into an existing line and refreshes its captured price.
func (c *Cart) Add(productID string, qty int, price decimal.Decimal) error {
	if qty < 1 || qty > MaxQuantity {
		return apperr.ErrInvalidQuantity
	}
	it := c.Items[productID]
	if it.Quantity > MaxQuantity-qty {
		return apperr.ErrInvalidQuantity
	}
	it.ProductID = productID
	it.Quantity += qty
	it.UnitPrice = price
	c.Items[productID] = it
	return nil
}

// Set replaces the quantity of an existing line; zero removes it.
func (c *Cart) Set(productID string, qty int) error {
	if qty < 0 || qty > MaxQuantity {
		return apperr.ErrInvalidQuantity
	}
	it, ok := c.Items[productID]
	if !ok {
		return apperr.ErrItemNotFound
	}
	if qty == 0 {
		delete(c.Items, productID)
		return nil
	}
	it.Quantity = qty
	c.Items[productID] = it
	return nil
}

func (c *Cart) Remove(productID string) {
	delete(c.Items, productID)
}

func (c *Cart) Clear() {
	c.Items = map[string]Item{}
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

// Lines returns the items ordered by product id.
func (c *Cart) Lines() []Item {
	out := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ItemCount is the number of units across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Clone() *Cart {
	cp := &Cart{ConsumerID: c.ConsumerID, Items: make(map[string]Item, len(c.Items)), UpdatedAt: c.UpdatedAt}
	for k, v := range c.Items {
		cp.Items[k] = v
	}
	return cp
}

// View is the read shape returned to callers.
type View struct {
	ConsumerID string          `json:"consumer_id"`
	Items      []Item          `json:"items"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

func (c *Cart) View() View {
	v := View{ConsumerID: c.ConsumerID, Items: c.Lines(), Total: c.Total(), ItemCount: c.ItemCount()}
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}
