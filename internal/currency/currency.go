// Package currency maps the store's internal currency representation to an
// ISO 4217 alphabetic code.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

var ErrUnresolvable = errors.New("currency: cannot resolve ISO code")

// Resolver turns an internal currency reference into an ISO 4217 code.
type Resolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// aliases covers numeric ISO codes used by card processors and the legacy
// ruble code still emitted by some stores.
var aliases = map[string]string{
	"RUR": "RUB",
	"643": "RUB",
	"840": "USD",
	"978": "EUR",
	"398": "KZT",
	"933": "BYN",
	"980": "UAH",
}

// ISOResolver validates codes against the CLDR currency table shipped with
// golang.org/x/text. Extra aliases can be added per store.
type ISOResolver struct {
	aliases map[string]string
}

func NewISOResolver(extra map[string]string) *ISOResolver {
	merged := make(map[string]string, len(aliases)+len(extra))
	for k, v := range aliases {
		merged[k] = v
	}
	for k, v := range extra {
		merged[strings.ToUpper(strings.TrimSpace(k))] = strings.ToUpper(strings.TrimSpace(v))
	}
	return &ISOResolver{aliases: merged}
}

func (r *ISOResolver) Resolve(_ context.Context, code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return "", fmt.Errorf("%w: empty code", ErrUnresolvable)
	}
	if alias, ok := r.aliases[normalized]; ok {
		normalized = alias
	}

	unit, err := currency.ParseISO(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnresolvable, code, err)
	}
	// XXX parses but means "no currency"
	if unit == currency.XXX {
		return "", fmt.Errorf("%w: %q", ErrUnresolvable, code)
	}
	return unit.String(), nil
}
