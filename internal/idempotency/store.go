// Package idempotency records which outcome was applied to a payment
// transaction so repeated gateway deliveries are not applied twice.
package idempotency

import (
	"context"
	"errors"
)

var ErrEmptyTransactionID = errors.New("idempotency: transaction id is empty")

// Store is an atomic first-writer-wins record of transaction id to outcome.
type Store interface {
	// Record stores outcome for transactionID unless an outcome is already
	// stored. It returns the stored outcome and whether this call stored it.
	Record(ctx context.Context, transactionID, outcome string) (stored string, first bool, err error)

	// Release forgets transactionID so a later delivery can apply it again.
	// Used when the outcome was recorded but could not be applied.
	Release(ctx context.Context, transactionID string) error

	// Upgrade replaces the stored outcome with to only if it is currently
	// from. It reports whether the swap happened.
	Upgrade(ctx context.Context, transactionID, from, to string) (bool, error)
}
