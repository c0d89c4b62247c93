package payment

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount        = errors.New("payment: invalid amount")
	ErrMissingTransactionID = errors.New("payment: transaction id is empty")
	ErrSignatureMismatch    = errors.New("payment: signature mismatch")
	ErrUnsupportedOperation = errors.New("payment: operation not supported")
)

// ConfigurationError means the merchant setup cannot produce a valid signed
// request. It is for the operator; payers get a generic failure.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("payment: configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// CurrencyResolutionError blocks a redirect whose currency is ambiguous.
type CurrencyResolutionError struct {
	Code string
	Err  error
}

func (e *CurrencyResolutionError) Error() string {
	return fmt.Sprintf("payment: cannot resolve currency %q: %v", e.Code, e.Err)
}

func (e *CurrencyResolutionError) Unwrap() error {
	return e.Err
}

// UnsupportedOperationError is returned for operations the gateway
// integration does not offer. Retrying never helps.
type UnsupportedOperationError struct {
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s method not supported", e.Operation)
}

func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

func (e *UnsupportedOperationError) Retryable() bool {
	return false
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsCurrencyResolutionError reports whether err is, or wraps, a CurrencyResolutionError.
func IsCurrencyResolutionError(err error) bool {
	var ce *CurrencyResolutionError
	return errors.As(err, &ce)
}
