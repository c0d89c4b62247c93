package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type postgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (s *postgresStore) Record(ctx context.Context, transactionID, outcome string) (string, bool, error) {
	if transactionID == "" {
		return "", false, ErrEmptyTransactionID
	}

	const insert = `
	INSERT INTO payment_callbacks (transaction_id, outcome)
	VALUES ($1, $2)
	ON CONFLICT (transaction_id)
	DO NOTHING
	RETURNING outcome;
	`

	var stored string
	err := s.db.QueryRowContext(ctx, insert, transactionID, outcome).Scan(&stored)
	if err == nil {
		return stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("record callback outcome: %w", err)
	}

	// Duplicate delivery: report what the first writer stored.
	const existing = `SELECT outcome FROM payment_callbacks WHERE transaction_id = $1;`
	if err := s.db.QueryRowContext(ctx, existing, transactionID).Scan(&stored); err != nil {
		return "", false, fmt.Errorf("read recorded outcome: %w", err)
	}
	return stored, false, nil
}

func (s *postgresStore) Upgrade(ctx context.Context, transactionID, from, to string) (bool, error) {
	const q = `
	UPDATE payment_callbacks
	SET outcome = $3, recorded_at = NOW()
	WHERE transaction_id = $1 AND outcome = $2;
	`
	res, err := s.db.ExecContext(ctx, q, transactionID, from, to)
	if err != nil {
		return false, fmt.Errorf("upgrade callback outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upgrade callback outcome: %w", err)
	}
	return n == 1, nil
}

func (s *postgresStore) Release(ctx context.Context, transactionID string) error {
	const q = `DELETE FROM payment_callbacks WHERE transaction_id = $1;`
	if _, err := s.db.ExecContext(ctx, q, transactionID); err != nil {
		return fmt.Errorf("release callback outcome: %w", err)
	}
	return nil
}
