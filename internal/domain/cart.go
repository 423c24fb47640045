package domain

import "github.com/shopspring/decimal"

type ProductID int64

type Product struct {
	ID         ProductID       `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID int64           `json:"category_id"`
}

// CartLine is one product in the cart. Quantity is always at least 1 while
// the line is held by a cart.
type CartLine struct {
	ProductID ProductID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
