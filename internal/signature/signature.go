// Package signature canonicalizes ordered transaction fields and signs them
// with the merchant secret. The same engine signs outbound payment requests
// and verifies inbound callbacks.
package signature

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingSecret = errors.New("signature: secret key is empty")
	ErrUnknownScheme = errors.New("signature: unknown scheme")
	ErrNoFields      = errors.New("signature: no fields to sign")
)

// Field is one canonical value in signing order. Key is informational; only
// values take part in the digest.
type Field struct {
	Key   string
	Value string
}

// Amount formats a monetary value with exactly two fractional digits and a
// "." separator, independent of locale.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Bool formats a flag as "true" or "false".
func Bool(b bool) string {
	return strconv.FormatBool(b)
}

// Int formats an integer in base 10 without padding.
func Int(i int64) string {
	return strconv.FormatInt(i, 10)
}

// Engine signs field lists under one Scheme. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	scheme Scheme
}

// New returns an engine for the named scheme.
func New(name string) (*Engine, error) {
	s, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return &Engine{scheme: s}, nil
}

// MustNew is New for package-level defaults and tests.
func MustNew(name string) *Engine {
	e, err := New(name)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Scheme() string {
	return e.scheme.Name
}

// Sign returns the encoded digest of fields and secret.
func (e *Engine) Sign(fields []Field, secret string) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if len(fields) == 0 {
		return "", ErrNoFields
	}

	message := e.message(fields, secret)
	return e.scheme.encode(e.scheme.digest([]byte(message), []byte(secret))), nil
}

// Verify recomputes the signature and compares it with asserted in constant
// time. An empty secret is an error, not a mismatch.
func (e *Engine) Verify(fields []Field, asserted, secret string) (bool, error) {
	expected, err := e.Sign(fields, secret)
	if err != nil {
		return false, err
	}
	if e.scheme.Keyed {
		return subtle.ConstantTimeCompare([]byte(expected), []byte(asserted)) == 1, nil
	}
	// hex digests are compared case-insensitively, the gateway sends either
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(asserted))) == 1, nil
}

// message joins the values with the secret spliced in at the scheme position.
func (e *Engine) message(fields []Field, secret string) string {
	values := make([]string, 0, len(fields)+1)
	for i, f := range fields {
		if !e.scheme.Keyed && i == e.scheme.SecretPosition {
			values = append(values, secret)
		}
		values = append(values, f.Value)
	}
	if !e.scheme.Keyed && e.scheme.SecretPosition >= len(fields) {
		values = append(values, secret)
	}
	return strings.Join(values, e.scheme.Delimiter)
}
