// Package fee computes the additional handling fee charged for paying with
// the gateway. Misconfiguration never blocks checkout: anything that cannot
// be turned into a non-negative amount yields a zero fee.
package fee

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects how Spec.Value is interpreted.
type Mode int

const (
	ModeFixed Mode = iota
	ModePercentage
)

func (m Mode) String() string {
	if m == ModePercentage {
		return "percentage"
	}
	return "fixed"
}

// Spec is either a fixed amount or a percentage of the cart subtotal.
type Spec struct {
	Mode  Mode
	Value decimal.Decimal
}

// MinorUnits is the number of fractional digits fees are rounded to.
const MinorUnits = 2

var hundred = decimal.NewFromInt(100)

func Fixed(amount decimal.Decimal) Spec {
	return Spec{Mode: ModeFixed, Value: amount}
}

func Percentage(percent decimal.Decimal) Spec {
	return Spec{Mode: ModePercentage, Value: percent}
}

// ParseSpec builds a Spec from raw settings values. An unparsable value
// becomes zero.
func ParseSpec(value string, percentage bool) Spec {
	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		v = decimal.Zero
	}
	if percentage {
		return Percentage(v)
	}
	return Fixed(v)
}

// Calculate returns the fee for subtotal. Percentage fees are rounded half
// away from zero to MinorUnits, the same rounding applied to order totals.
func Calculate(subtotal decimal.Decimal, spec Spec) decimal.Decimal {
	if spec.Value.IsNegative() {
		return decimal.Zero
	}

	switch spec.Mode {
	case ModePercentage:
		if subtotal.IsNegative() {
			return decimal.Zero
		}
		return subtotal.Mul(spec.Value).Div(hundred).Round(MinorUnits)
	case ModeFixed:
		return spec.Value
	default:
		return decimal.Zero
	}
}
