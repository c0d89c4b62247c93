package fee

import (
	"github.com/shopspring/decimal"
)

// CartItem is the part of a cart line the fee needs.
type CartItem struct {
	ProductID uint            `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal sums price × quantity. Lines with a non-positive quantity or a
// negative price are skipped.
func Subtotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Quantity <= 0 || it.UnitPrice.IsNegative() {
			continue
		}
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// Calculator applies the current Spec to carts.
type Calculator struct {
	source func() Spec
}

// NewCalculatorFrom reads the spec on every call, so operator changes apply
// to the next cart.
func NewCalculatorFrom(source func() Spec) *Calculator {
	return &Calculator{source: source}
}

func (c *Calculator) Spec() Spec {
	return c.source()
}

// HandlingFee returns the additional fee for the given cart.
func (c *Calculator) HandlingFee(items []CartItem) decimal.Decimal {
	return Calculate(Subtotal(items), c.Spec())
}
