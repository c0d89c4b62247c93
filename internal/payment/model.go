package payment

import (
	"monetadirect/internal/signature"

	"github.com/shopspring/decimal"
)

// Wire field names. They are case-sensitive and fixed by the gateway.
const (
	FieldMerchantID    = "MNT_ID"
	FieldTransactionID = "MNT_TRANSACTION_ID"
	FieldCurrencyCode  = "MNT_CURRENCY_CODE"
	FieldAmount        = "MNT_AMOUNT"
	FieldTestMode      = "MNT_TEST_MODE"
	FieldSubscriberID  = "MNT_SUBSCRIBER_ID"
	FieldSignature     = "MNT_SIGNATURE"
	FieldOutcome       = "MNT_STATUS"
)

// OrderTotal is the authoritative amount the store charged, as read from the
// order. The builder never recomputes it.
type OrderTotal struct {
	Amount       decimal.Decimal
	CurrencyCode string
}

// OutboundPaymentRequest is the signed field set sent through the payer's
// browser to the gateway.
type OutboundPaymentRequest struct {
	MerchantID    string
	TransactionID string
	CurrencyCode  string
	Amount        decimal.Decimal
	TestMode      bool
	SubscriberID  int64
	Signature     string

	// CustomerID is for our logs only and is never sent.
	CustomerID int64
}

// SigningFields returns the canonical values in signing order. The secret is
// spliced in by the signature scheme after the amount.
func (r *OutboundPaymentRequest) SigningFields() []signature.Field {
	return []signature.Field{
		{Key: FieldMerchantID, Value: r.MerchantID},
		{Key: FieldTransactionID, Value: r.TransactionID},
		{Key: FieldCurrencyCode, Value: r.CurrencyCode},
		{Key: FieldAmount, Value: signature.Amount(r.Amount)},
		{Key: FieldTestMode, Value: signature.Bool(r.TestMode)},
		{Key: FieldSubscriberID, Value: signature.Int(r.SubscriberID)},
	}
}

// FormField is one hidden input of the redirect form.
type FormField struct {
	Name  string
	Value string
}

// FormFields returns every wire field, signature last, in wire order.
func (r *OutboundPaymentRequest) FormFields() []FormField {
	signing := r.SigningFields()
	out := make([]FormField, 0, len(signing)+1)
	for _, f := range signing {
		out = append(out, FormField{Name: f.Key, Value: f.Value})
	}
	return append(out, FormField{Name: FieldSignature, Value: r.Signature})
}

// InboundCallback is what the gateway claims about a payment. Nothing in it
// is trusted until Signature has been verified.
type InboundCallback struct {
	MerchantID    string
	TransactionID string
	CurrencyCode  string
	Amount        decimal.Decimal
	TestMode      bool
	SubscriberID  int64
	OutcomeCode   string
	Signature     string
}

// SigningFields covers every supplied field except the signature itself.
func (c *InboundCallback) SigningFields() []signature.Field {
	return []signature.Field{
		{Key: FieldMerchantID, Value: c.MerchantID},
		{Key: FieldTransactionID, Value: c.TransactionID},
		{Key: FieldCurrencyCode, Value: c.CurrencyCode},
		{Key: FieldAmount, Value: signature.Amount(c.Amount)},
		{Key: FieldTestMode, Value: signature.Bool(c.TestMode)},
		{Key: FieldSubscriberID, Value: signature.Int(c.SubscriberID)},
		{Key: FieldOutcome, Value: c.OutcomeCode},
	}
}
