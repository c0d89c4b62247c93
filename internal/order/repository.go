package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	GetByGUID(ctx context.Context, orderGUID uuid.UUID) (*Order, error)
	UpdateStatusByGUID(ctx context.Context, orderGUID uuid.UUID, from, to OrderStatus) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByGUID(ctx context.Context, orderGUID uuid.UUID) (*Order, error) {
	const q = `
	SELECT id, order_guid, customer_id, total_amount, currency, status, created_at, updated_at
	FROM orders
	WHERE order_guid = $1
	LIMIT 1;
	`

	var o Order
	err := r.db.QueryRowContext(ctx, q, orderGUID).Scan(
		&o.ID, &o.OrderGUID, &o.CustomerID, &o.Total, &o.Currency,
		&o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order %s: %w", orderGUID, err)
	}
	return &o, nil
}

// UpdateStatusByGUID moves the order only if it is still in status from, so
// two concurrent writers cannot both apply a transition.
func (r *repository) UpdateStatusByGUID(ctx context.Context, orderGUID uuid.UUID, from, to OrderStatus) error {
	const q = `
	UPDATE orders
	SET status = $1, updated_at = now()
	WHERE order_guid = $2 AND status = $3;
	`

	res, err := r.db.ExecContext(ctx, q, to, orderGUID, from)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: order %s is no longer %s", ErrInvalidStatusTransition, orderGUID, from)
	}
	return nil
}
