package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const AggregateType = "order"

const (
	EventOrderPlaced         = "OrderPlaced"
	EventOrderStatusChanged  = "OrderStatusChanged"
	EventOrderPaymentChanged = "OrderPaymentChanged"
)

type OrderPlaced struct {
	OrderID    string          `json:"order_id"`
	ConsumerID string          `json:"consumer_id"`
	ProducerID string          `json:"producer_id"`
	Total      decimal.Decimal `json:"total"`
	Items      []OrderItem     `json:"items"`
}

type OrderStatusChanged struct {
	OrderID   string      `json:"order_id"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ActorID   string      `json:"actor_id"`
	ActorRole string      `json:"actor_role"`
	At        time.Time   `json:"at"`
}

type OrderPaymentChanged struct {
	OrderID string        `json:"order_id"`
	From    PaymentStatus `json:"from"`
	To      PaymentStatus `json:"to"`
	At      time.Time     `json:"at"`
}
