package payment

import (
	"context"

	"monetadirect/internal/currency"
	"monetadirect/internal/logger"
	"monetadirect/internal/settings"
	"monetadirect/internal/signature"

	"go.uber.org/zap"
)

// Builder assembles and signs outbound payment requests. It holds no
// per-transaction state.
type Builder struct {
	resolver currency.Resolver
}

func NewBuilder(resolver currency.Resolver) *Builder {
	return &Builder{resolver: resolver}
}

// Build produces the signed request for one order. Failures are
// configuration or input problems; nothing here is worth retrying.
func (b *Builder) Build(
	ctx context.Context,
	customerID int64,
	transactionID string,
	total OrderTotal,
	s settings.GatewaySettings,
) (*OutboundPaymentRequest, error) {
	log := logger.FromCtx(ctx).With(
		zap.Int64("customer_id", customerID),
		zap.String("transaction_id", transactionID),
	)

	if err := s.Validate(); err != nil {
		log.Error("Gateway settings are not usable", zap.Error(err))
		return nil, &ConfigurationError{Err: err}
	}
	engine, err := signature.New(s.SignatureScheme)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	if transactionID == "" {
		return nil, ErrMissingTransactionID
	}
	if !total.Amount.IsPositive() || !total.Amount.Equal(total.Amount.Round(2)) {
		log.Warn("Order total cannot be sent without rounding", zap.String("amount", total.Amount.String()))
		return nil, ErrInvalidAmount
	}

	code := total.CurrencyCode
	if code == "" {
		code = s.CurrencyCode
	}
	iso, err := b.resolver.Resolve(ctx, code)
	if err != nil {
		log.Warn("Currency resolution failed", zap.String("currency", code), zap.Error(err))
		return nil, &CurrencyResolutionError{Code: code, Err: err}
	}

	req := &OutboundPaymentRequest{
		MerchantID:    s.MerchantID,
		TransactionID: transactionID,
		CurrencyCode:  iso,
		Amount:        total.Amount,
		TestMode:      s.TestMode,
		SubscriberID:  s.SubscriberID,
		CustomerID:    customerID,
	}

	req.Signature, err = engine.Sign(req.SigningFields(), s.SecretKey)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	log.Info("Payment request signed",
		zap.String("merchant_id", req.MerchantID),
		zap.String("currency", req.CurrencyCode),
		zap.String("amount", signature.Amount(req.Amount)),
		zap.Bool("test_mode", req.TestMode),
		zap.String("scheme", engine.Scheme()),
	)
	return req, nil
}
