package order

import (
	"context"
	"errors"
	"fmt"

	"monetadirect/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is what the payment flow needs from the host's orders.
type Service interface {
	GetPaymentOrder(ctx context.Context, transactionID string) (*Order, error)
	MarkAsPaid(ctx context.Context, transactionID string) error
	MarkAsFailed(ctx context.Context, transactionID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func parseTransactionID(transactionID string) (uuid.UUID, error) {
	id, err := uuid.Parse(transactionID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed transaction id", ErrOrderNotFound)
	}
	return id, nil
}

func (s *service) GetPaymentOrder(ctx context.Context, transactionID string) (*Order, error) {
	id, err := parseTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByGUID(ctx, id)
}

func (s *service) MarkAsPaid(ctx context.Context, transactionID string) error {
	return s.transition(ctx, transactionID, OrderStatusPaid)
}

func (s *service) MarkAsFailed(ctx context.Context, transactionID string) error {
	return s.transition(ctx, transactionID, OrderStatusFailed)
}

func (s *service) transition(ctx context.Context, transactionID string, to OrderStatus) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("transaction_id", transactionID),
		zap.String("to", string(to)),
	)

	id, err := parseTransactionID(transactionID)
	if err != nil {
		return err
	}
	o, err := s.repo.GetByGUID(ctx, id)
	if err != nil {
		return err
	}

	if o.Status == to {
		log.Info("Order already in target status")
		return nil
	}
	if !o.Status.canTransitionTo(to) {
		log.Warn("Rejected order status change", zap.String("from", string(o.Status)))
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, o.Status, to)
	}

	if err := s.repo.UpdateStatusByGUID(ctx, id, o.Status, to); err != nil {
		if !errors.Is(err, ErrInvalidStatusTransition) {
			log.Error("Failed to update order status", zap.Error(err))
		}
		return err
	}

	log.Info("Order status updated", zap.String("from", string(o.Status)))
	return nil
}
