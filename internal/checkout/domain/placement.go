package domain

import (
	"sort"
	"time"

	cartdomain "github.com/dmehra2102/agro-marketplace/internal/cart/domain"
	catalogdomain "github.com/dmehra2102/agro-marketplace/internal/catalog/domain"
	orderdomain "github.com/dmehra2102/agro-marketplace/internal/order/domain"
	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
	"github.com/dmehra2102/agro-marketplace/pkg/outbox"
)

// Placement is everything a successful checkout writes, committed as one unit.
type Placement struct {
	ConsumerID string
	// CartVersion is the cart's UpdatedAt when it was read; the commit fails
	// with a conflict if the cart changed since.
	CartVersion time.Time
	Decrements  []catalogdomain.StockDecrement
	Orders      []orderdomain.Order
	Messages    []outbox.Message
}

// Validate checks every line against the live catalog, in product id order so
// the reported failure is deterministic.
func Validate(lines []cartdomain.Item, live map[string]catalogdomain.Product) error {
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > cartdomain.MaxQuantity {
			return apperr.ErrInvalidQuantity
		}
		p, ok := live[l.ProductID]
		if !ok {
			return apperr.ProductRemoved(l.ProductID)
		}
		if !p.Available {
			return apperr.ProductUnavailable(l.ProductID)
		}
		if p.Stock < l.Quantity {
			return apperr.InsufficientStock(l.ProductID, p.Stock, false)
		}
	}
	return nil
}

// Split builds one order per producer, priced at the live catalog price.
// Orders come back sorted by producer id.
func Split(consumerID string, lines []cartdomain.Item, live map[string]catalogdomain.Product, d orderdomain.Delivery, newID func() string, now time.Time) []orderdomain.Order {
	byProducer := map[string][]orderdomain.OrderItem{}
	for _, l := range lines {
		p := live[l.ProductID]
		byProducer[p.ProducerID] = append(byProducer[p.ProducerID], orderdomain.OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
		})
	}
	producers := make([]string, 0, len(byProducer))
	for id := range byProducer {
		producers = append(producers, id)
	}
	sort.Strings(producers)

	orders := make([]orderdomain.Order, 0, len(producers))
	for _, producerID := range producers {
		orders = append(orders, orderdomain.NewOrder(newID(), consumerID, producerID, byProducer[producerID], d, now))
	}
	return orders
}

func Decrements(lines []cartdomain.Item) []catalogdomain.StockDecrement {
	out := make([]catalogdomain.StockDecrement, 0, len(lines))
	for _, l := range lines {
		out = append(out, catalogdomain.StockDecrement{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
