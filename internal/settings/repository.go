package settings

import (
	"context"
	"database/sql"
	"errors"

	"monetadirect/internal/fee"

	"github.com/shopspring/decimal"
)

// Repository persists the single settings row of this store.
type Repository interface {
	// Install writes Defaults unless settings already exist.
	Install(ctx context.Context) error
	Load(ctx context.Context) (*GatewaySettings, error)
	Save(ctx context.Context, s GatewaySettings) error
	// Uninstall removes the settings row.
	Uninstall(ctx context.Context) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const settingsRowID = 1

func (r *repository) Install(ctx context.Context) error {
	d := Defaults()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gateway_settings (
			id, merchant_id, secret_key, test_mode, currency_code, subscriber_id,
			gateway_url, signature_scheme, fee_value, fee_percentage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`,
		settingsRowID, d.MerchantID, d.SecretKey, d.TestMode, d.CurrencyCode, d.SubscriberID,
		d.GatewayURL, d.SignatureScheme, feeValueString(d.Fee.Value), d.Fee.Mode == fee.ModePercentage,
	)
	return err
}

func (r *repository) Load(ctx context.Context) (*GatewaySettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT merchant_id, secret_key, test_mode, currency_code, subscriber_id,
			gateway_url, signature_scheme, fee_value, fee_percentage
		FROM gateway_settings WHERE id = $1
	`, settingsRowID)

	var (
		s             GatewaySettings
		feeValue      string
		feePercentage bool
	)
	err := row.Scan(
		&s.MerchantID, &s.SecretKey, &s.TestMode, &s.CurrencyCode, &s.SubscriberID,
		&s.GatewayURL, &s.SignatureScheme, &feeValue, &feePercentage,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotInstalled
		}
		return nil, err
	}
	s.Fee = fee.ParseSpec(feeValue, feePercentage)
	return &s, nil
}

func (r *repository) Save(ctx context.Context, s GatewaySettings) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE gateway_settings SET
			merchant_id = $2, secret_key = $3, test_mode = $4, currency_code = $5,
			subscriber_id = $6, gateway_url = $7, signature_scheme = $8,
			fee_value = $9, fee_percentage = $10, updated_at = now()
		WHERE id = $1
	`,
		settingsRowID, s.MerchantID, s.SecretKey, s.TestMode, s.CurrencyCode,
		s.SubscriberID, s.GatewayURL, s.SignatureScheme,
		feeValueString(s.Fee.Value), s.Fee.Mode == fee.ModePercentage,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotInstalled
	}
	return nil
}

func (r *repository) Uninstall(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM gateway_settings WHERE id = $1`, settingsRowID)
	return err
}

func feeValueString(v decimal.Decimal) string {
	return v.String()
}
