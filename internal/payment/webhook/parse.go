package webhook

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"monetadirect/internal/payment"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingField   = errors.New("callback: required field missing")
	ErrMalformedField = errors.New("callback: malformed field")
)

var requiredFields = []string{
	payment.FieldMerchantID,
	payment.FieldTransactionID,
	payment.FieldCurrencyCode,
	payment.FieldAmount,
	payment.FieldOutcome,
	payment.FieldSignature,
}

// ParseCallback reads the gateway's form or query fields. Nothing it returns
// is trusted yet.
func ParseCallback(values url.Values) (payment.InboundCallback, error) {
	for _, name := range requiredFields {
		if strings.TrimSpace(values.Get(name)) == "" {
			return payment.InboundCallback{}, fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}

	amount, err := decimal.NewFromString(values.Get(payment.FieldAmount))
	if err != nil {
		return payment.InboundCallback{}, fmt.Errorf("%w: %s", ErrMalformedField, payment.FieldAmount)
	}

	cb := payment.InboundCallback{
		MerchantID:    values.Get(payment.FieldMerchantID),
		TransactionID: values.Get(payment.FieldTransactionID),
		CurrencyCode:  values.Get(payment.FieldCurrencyCode),
		Amount:        amount,
		OutcomeCode:   values.Get(payment.FieldOutcome),
		Signature:     values.Get(payment.FieldSignature),
	}

	if v := values.Get(payment.FieldTestMode); v != "" {
		cb.TestMode, err = strconv.ParseBool(v)
		if err != nil {
			return payment.InboundCallback{}, fmt.Errorf("%w: %s", ErrMalformedField, payment.FieldTestMode)
		}
	}
	if v := values.Get(payment.FieldSubscriberID); v != "" {
		cb.SubscriberID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return payment.InboundCallback{}, fmt.Errorf("%w: %s", ErrMalformedField, payment.FieldSubscriberID)
		}
	}
	return cb, nil
}
