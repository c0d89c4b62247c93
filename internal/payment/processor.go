package payment

import (
	"context"

	"monetadirect/internal/logger"

	"go.uber.org/zap"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusFailed  Status = "FAILED"
)

// Result is returned by every processor operation. Err is set for
// operations the gateway does not support.
type Result struct {
	Status Status
	Err    error
}

type RecurringSupport string

const RecurringNotSupported RecurringSupport = "NotSupported"

type MethodType string

const MethodRedirection MethodType = "Redirection"

// Capabilities describes what the integration can do beyond a redirect.
type Capabilities struct {
	SupportCapture          bool             `json:"support_capture"`
	SupportPartiallyRefund  bool             `json:"support_partially_refund"`
	SupportRefund           bool             `json:"support_refund"`
	SupportVoid             bool             `json:"support_void"`
	SupportRecurring        RecurringSupport `json:"support_recurring"`
	MethodType              MethodType       `json:"method_type"`
	SkipPaymentInfo         bool             `json:"skip_payment_info"`
	HidePaymentMethod       bool             `json:"hide_payment_method"`
	CanRePostProcessPayment bool             `json:"can_repost_process_payment"`
}

// Processor exposes the host-facing payment method contract. Payment happens
// on the gateway's page, so everything but ProcessPayment is refused.
type Processor struct{}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) Capabilities() Capabilities {
	return Capabilities{
		SupportRecurring: RecurringNotSupported,
		MethodType:       MethodRedirection,
	}
}

// ProcessPayment leaves the order pending until the gateway calls back.
func (p *Processor) ProcessPayment(ctx context.Context, transactionID string) Result {
	logger.FromCtx(ctx).Debug("Payment left pending for redirect", zap.String("transaction_id", transactionID))
	return Result{Status: StatusPending}
}

func (p *Processor) Capture(ctx context.Context, transactionID string) Result {
	return p.unsupported(ctx, "Capture", transactionID)
}

func (p *Processor) Refund(ctx context.Context, transactionID string) Result {
	return p.unsupported(ctx, "Refund", transactionID)
}

func (p *Processor) Void(ctx context.Context, transactionID string) Result {
	return p.unsupported(ctx, "Void", transactionID)
}

func (p *Processor) ProcessRecurring(ctx context.Context, transactionID string) Result {
	return p.unsupported(ctx, "Recurring payment", transactionID)
}

func (p *Processor) CancelRecurring(ctx context.Context, transactionID string) Result {
	return p.unsupported(ctx, "Recurring payment", transactionID)
}

func (p *Processor) unsupported(ctx context.Context, op, transactionID string) Result {
	logger.FromCtx(ctx).Warn("Unsupported payment operation requested",
		zap.String("operation", op),
		zap.String("transaction_id", transactionID),
	)
	return Result{Status: StatusFailed, Err: &UnsupportedOperationError{Operation: op}}
}
