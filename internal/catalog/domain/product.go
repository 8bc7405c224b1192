package domain

import (
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

// PricePlaces is the scale prices are stored and compared at.
const PricePlaces = 2

// Product is the read model the marketplace core consumes. Stock is only ever
// decremented by checkout.
type Product struct {
	ID         string          `json:"id"`
	ProducerID string          `json:"producer_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Unit       string          `json:"unit"`
	Available  bool            `json:"available"`
}

// Normalized returns p with its price rounded to PricePlaces, so cart lines,
// order items and totals all agree with what storage keeps.
func (p Product) Normalized() Product {
	p.Price = p.Price.Round(PricePlaces)
	return p
}

// Validate checks a product entering the catalog. Call it on the normalized
// value: a price that rounds to zero is rejected.
func (p Product) Validate() error {
	switch {
	case p.ID == "" || p.ProducerID == "":
		return apperr.New(apperr.CodeInvalidArgument, "product id and producer_id are required")
	case !p.Price.IsPositive():
		return apperr.Newf(apperr.CodeInvalidArgument, "product %q: price must be positive", p.ID)
	case p.Stock < 0:
		return apperr.Newf(apperr.CodeInvalidArgument, "product %q: stock must not be negative", p.ID)
	}
	return nil
}

// Purchasable reports whether qty units can be sold right now.
func (p Product) Purchasable(qty int) bool {
	return p.Available && p.Stock >= qty
}

// StockDecrement is one entry of an atomic batch decrement.
type StockDecrement struct {
	ProductID string
	Quantity  int
}
