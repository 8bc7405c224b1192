package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pendiente"
	StatusConfirmed OrderStatus = "confirmado"
	StatusPreparing OrderStatus = "en_preparacion"
	StatusInTransit OrderStatus = "en_camino"
	StatusDelivered OrderStatus = "entregado"
	StatusCanceled  OrderStatus = "cancelado"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pendiente"
	PaymentPaid     PaymentStatus = "pagado"
	PaymentRefunded PaymentStatus = "reembolsado"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// Order belongs to exactly one producer. Items and Total are frozen at creation.
type Order struct {
	ID                string          `json:"id"`
	ConsumerID        string          `json:"consumer_id"`
	ProducerID        string          `json:"producer_id"`
	Items             []OrderItem     `json:"items"`
	Total             decimal.Decimal `json:"total"`
	Status            OrderStatus     `json:"state"`
	PaymentStatus     PaymentStatus   `json:"payment_state"`
	PaymentMethod     string          `json:"payment_method"`
	DeliveryAddress   string          `json:"delivery_address"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Delivery carries the checkout details copied onto every order of a placement.
type Delivery struct {
	Address       string
	PaymentMethod string
	Notes         string
}

func NewOrder(id, consumerID, producerID string, items []OrderItem, d Delivery, now time.Time) Order {
	total := decimal.Zero
	frozen := make([]OrderItem, len(items))
	for i, item := range items {
		frozen[i] = item
		total = total.Add(item.Subtotal())
	}
	now = now.UTC()
	return Order{
		ID:              id,
		ConsumerID:      consumerID,
		ProducerID:      producerID,
		Items:           frozen,
		Total:           total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   d.PaymentMethod,
		DeliveryAddress: d.Address,
		Notes:           d.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Clone deep-copies slices and pointers so callers cannot mutate stored orders.
func (o Order) Clone() Order {
	cp := o
	cp.Items = make([]OrderItem, len(o.Items))
	copy(cp.Items, o.Items)
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		cp.EstimatedDelivery = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		cp.DeliveredAt = &t
	}
	return cp
}

type ListOptions struct {
	ConsumerID string
	ProducerID string
	Status     OrderStatus
	Limit      int
	Offset     int
}

func (o *ListOptions) Normalize() {
	if o.Limit <= 0 || o.Limit > 100 {
		o.Limit = 20
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

type ListResult struct {
	Items  []Order `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
