package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"monetadirect/internal/currency"
	"monetadirect/internal/idempotency"
	"monetadirect/internal/logger"
	"monetadirect/internal/metrics"
	"monetadirect/internal/order"
	"monetadirect/internal/payment"
	"monetadirect/internal/settings"
	"monetadirect/internal/signature"

	"go.uber.org/zap"
)

var (
	ErrMerchantMismatch = errors.New("callback: merchant id does not match")
	ErrAmountMismatch   = errors.New("callback: amount does not match order")
	ErrCurrencyMismatch = errors.New("callback: currency does not match order")
	ErrTestModeMismatch = errors.New("callback: test payment for a live merchant")
	ErrUnknownOrder     = errors.New("callback: unknown transaction")
)

// Result describes what happened to one callback. Err carries the rejection
// reason for REJECTED results and is never shown to the gateway.
type Result struct {
	State     State
	Duplicate bool
	Conflict  bool
	Err       error
}

func rejected(err error) Result {
	return Result{State: StateRejected, Err: err}
}

// Validator authenticates gateway callbacks and applies terminal outcomes to
// the order exactly once.
type Validator struct {
	settings *settings.Provider
	orders   order.Service
	store    idempotency.Store
	resolver currency.Resolver
	metrics  *metrics.Metrics
}

func NewValidator(
	provider *settings.Provider,
	orders order.Service,
	store idempotency.Store,
	resolver currency.Resolver,
	m *metrics.Metrics,
) *Validator {
	return &Validator{
		settings: provider,
		orders:   orders,
		store:    store,
		resolver: resolver,
		metrics:  m,
	}
}

// Handle runs RECEIVED -> VERIFIED -> outcome. A returned error is internal
// and means the gateway should redeliver; rejections come back as a Result.
func (v *Validator) Handle(ctx context.Context, cb payment.InboundCallback) (Result, error) {
	timer := metrics.StartTimer()
	ctx = logger.WithTransactionID(ctx, cb.TransactionID)
	log := logger.FromCtx(ctx).With(zap.String("layer", "webhook"))

	res, err := v.handle(ctx, log, cb)
	if err != nil {
		log.Error("Callback processing failed", zap.Error(err))
		v.metrics.RecordCallback("ERROR", timer)
		return res, err
	}
	v.metrics.RecordCallback(string(res.State), timer)
	return res, nil
}

func (v *Validator) handle(ctx context.Context, log *zap.Logger, cb payment.InboundCallback) (Result, error) {
	s := v.settings.Current()
	engine, err := signature.New(s.SignatureScheme)
	if err != nil {
		return Result{State: StateReceived}, &payment.ConfigurationError{Err: err}
	}

	ok, err := engine.Verify(cb.SigningFields(), cb.Signature, s.SecretKey)
	if err != nil {
		return Result{State: StateReceived}, &payment.ConfigurationError{Err: err}
	}
	if !ok {
		v.metrics.RecordSignatureFailure()
		log.Warn("Callback rejected",
			zap.Error(payment.ErrSignatureMismatch),
			zap.String("merchant_id", cb.MerchantID),
			zap.String("outcome", cb.OutcomeCode),
			zap.String("signature", logger.Mask(cb.Signature)),
		)
		return rejected(payment.ErrSignatureMismatch), nil
	}

	if err := v.checkClaims(ctx, s, cb); err != nil {
		if errors.Is(err, errInternal) {
			return Result{State: StateVerified}, err
		}
		log.Warn("Verified callback rejected", zap.Error(err))
		return rejected(err), nil
	}

	state := MapOutcome(cb.OutcomeCode)
	if !state.Terminal() {
		if state == StateUnrecognized {
			log.Warn("Unrecognized outcome code, order left untouched", zap.String("outcome", cb.OutcomeCode))
		} else {
			log.Info("Payment still pending")
		}
		return Result{State: state}, nil
	}

	return v.apply(ctx, log, cb.TransactionID, state)
}

var errInternal = errors.New("internal")

// checkClaims compares a verified callback with what we know about the order.
func (v *Validator) checkClaims(ctx context.Context, s settings.GatewaySettings, cb payment.InboundCallback) error {
	if cb.MerchantID != s.MerchantID {
		return fmt.Errorf("%w: got %q", ErrMerchantMismatch, cb.MerchantID)
	}
	if cb.TestMode && !s.TestMode {
		return ErrTestModeMismatch
	}

	o, err := v.orders.GetPaymentOrder(ctx, cb.TransactionID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return ErrUnknownOrder
		}
		return fmt.Errorf("%w: load order: %v", errInternal, err)
	}

	if !o.Total.Equal(cb.Amount) {
		return fmt.Errorf("%w: order %s, callback %s", ErrAmountMismatch,
			signature.Amount(o.Total), signature.Amount(cb.Amount))
	}

	code := o.Currency
	if code == "" {
		code = s.CurrencyCode
	}
	want, err := v.resolver.Resolve(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: order currency %q: %v", ErrCurrencyMismatch, code, err)
	}
	if !strings.EqualFold(want, cb.CurrencyCode) {
		return fmt.Errorf("%w: order %s, callback %s", ErrCurrencyMismatch, want, cb.CurrencyCode)
	}
	return nil
}

// apply records the outcome and, for the first writer only, updates the order.
// A recorded decline is the one outcome a later acceptance may supersede: the
// payer can retry on the gateway with the same transaction.
func (v *Validator) apply(ctx context.Context, log *zap.Logger, transactionID string, state State) (Result, error) {
	stored, first, err := v.store.Record(ctx, transactionID, string(state))
	if err != nil {
		return Result{State: StateVerified}, fmt.Errorf("record outcome: %w", err)
	}

	if !first {
		if State(stored) == state {
			v.metrics.RecordDuplicate()
			log.Info("Duplicate callback ignored", zap.String("outcome", stored))
			return Result{State: state, Duplicate: true}, nil
		}
		if State(stored) == StateDeclined && state == StateAccepted {
			return v.supersedeDecline(ctx, log, transactionID)
		}
		v.metrics.RecordConflict()
		log.Warn("Callback conflicts with recorded outcome, order left untouched",
			zap.String("recorded", stored),
			zap.String("asserted", string(state)),
		)
		return Result{State: State(stored), Conflict: true}, nil
	}

	if err := v.mutate(ctx, log, transactionID, state); err != nil {
		if relErr := v.store.Release(ctx, transactionID); relErr != nil {
			log.Error("Failed to release outcome record", zap.Error(relErr))
		}
		return Result{State: StateVerified}, err
	}
	return Result{State: state}, nil
}

func (v *Validator) supersedeDecline(ctx context.Context, log *zap.Logger, transactionID string) (Result, error) {
	declined, accepted := string(StateDeclined), string(StateAccepted)

	swapped, err := v.store.Upgrade(ctx, transactionID, declined, accepted)
	if err != nil {
		return Result{State: StateVerified}, fmt.Errorf("upgrade outcome: %w", err)
	}
	if !swapped {
		// another delivery changed the record first; the redelivery sorts it out
		return Result{State: StateVerified}, fmt.Errorf("recorded outcome for %s changed concurrently", transactionID)
	}
	log.Info("Accepted payment supersedes recorded decline")

	if err := v.mutate(ctx, log, transactionID, StateAccepted); err != nil {
		if _, revErr := v.store.Upgrade(ctx, transactionID, accepted, declined); revErr != nil {
			log.Error("Failed to restore declined outcome record", zap.Error(revErr))
		}
		return Result{State: StateVerified}, err
	}
	return Result{State: StateAccepted}, nil
}

// mutate moves the order to the status matching a terminal state. An order
// that cannot take the status is logged and left alone.
func (v *Validator) mutate(ctx context.Context, log *zap.Logger, transactionID string, state State) error {
	var err error
	switch state {
	case StateAccepted:
		err = v.orders.MarkAsPaid(ctx, transactionID)
	case StateDeclined:
		err = v.orders.MarkAsFailed(ctx, transactionID)
	}

	if err != nil {
		if errors.Is(err, order.ErrInvalidStatusTransition) {
			// the order moved on some other way; keep the record so replays stay no-ops
			log.Warn("Order cannot take callback outcome", zap.Error(err))
			return nil
		}
		return fmt.Errorf("apply outcome: %w", err)
	}

	log.Info("Callback applied", zap.String("outcome", string(state)))
	return nil
}
