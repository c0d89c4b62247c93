package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusFailed         OrderStatus = "FAILED"
)

// Order is the slice of the host's order the payment flow reads. Total is
// authoritative and already includes the handling fee.
type Order struct {
	ID         int64
	OrderGUID  uuid.UUID
	CustomerID int64
	Total      decimal.Decimal
	Currency   string
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TransactionID is the value sent as MNT_TRANSACTION_ID.
func (o *Order) TransactionID() string {
	return o.OrderGUID.String()
}

func (s OrderStatus) canTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPendingPayment:
		return next == OrderStatusPaid || next == OrderStatusFailed
	case OrderStatusFailed:
		// a payer may retry a declined payment and succeed
		return next == OrderStatusPaid
	}
	return false
}
