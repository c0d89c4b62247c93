package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"monetadirect/internal/config"
	"monetadirect/internal/fee"
	"monetadirect/internal/signature"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingMerchantID = errors.New("merchant id is empty")
	ErrMissingSecret     = errors.New("secret key is empty")
	ErrInvalidGatewayURL = errors.New("gateway url is invalid")
	ErrInvalidSubscriber = errors.New("subscriber id is negative")
	ErrNotInstalled      = errors.New("gateway settings not installed")
)

// GatewaySettings is the merchant configuration the protocol reads. Values
// are passed by value; nothing in the payment path mutates them.
type GatewaySettings struct {
	MerchantID      string
	SecretKey       string
	TestMode        bool
	CurrencyCode    string
	SubscriberID    int64
	GatewayURL      string
	SignatureScheme string
	Fee             fee.Spec
}

// Defaults are the values written on install.
func Defaults() GatewaySettings {
	return GatewaySettings{
		TestMode:        true,
		CurrencyCode:    "RUB",
		GatewayURL:      "https://www.payanyway.ru/assistant.htm",
		SignatureScheme: signature.DefaultScheme,
		Fee:             fee.Fixed(decimal.Zero),
	}
}

func FromConfig(cfg *config.Config) GatewaySettings {
	return GatewaySettings{
		MerchantID:      cfg.Merchant.ID,
		SecretKey:       cfg.Merchant.Secret,
		TestMode:        cfg.Merchant.TestMode,
		CurrencyCode:    cfg.Merchant.CurrencyCode,
		SubscriberID:    cfg.Merchant.SubscriberID,
		GatewayURL:      cfg.Merchant.GatewayURL,
		SignatureScheme: cfg.Merchant.SignatureScheme,
		Fee:             fee.ParseSpec(cfg.Fee.Value, cfg.Fee.Percentage),
	}
}

// Validate reports the first problem that would make a signed request
// unusable. It does not check the currency, which is resolved per order.
func (s GatewaySettings) Validate() error {
	if s.MerchantID == "" {
		return ErrMissingMerchantID
	}
	if s.SecretKey == "" {
		return ErrMissingSecret
	}
	if s.SubscriberID < 0 {
		return ErrInvalidSubscriber
	}
	if _, ok := signature.Lookup(s.SignatureScheme); !ok {
		return fmt.Errorf("%w: %q", signature.ErrUnknownScheme, s.SignatureScheme)
	}
	u, err := url.Parse(s.GatewayURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ErrInvalidGatewayURL
	}
	return nil
}

// String never includes the secret.
func (s GatewaySettings) String() string {
	return fmt.Sprintf("GatewaySettings{merchant=%s test=%t currency=%s subscriber=%d scheme=%s secret_set=%t}",
		s.MerchantID, s.TestMode, s.CurrencyCode, s.SubscriberID, s.SignatureScheme, s.SecretKey != "")
}

// View is the operator-facing JSON representation; the secret is reduced to
// a flag.
type View struct {
	MerchantID      string          `json:"merchant_id"`
	SecretSet       bool            `json:"secret_set"`
	TestMode        bool            `json:"test_mode"`
	CurrencyCode    string          `json:"currency_code"`
	SubscriberID    int64           `json:"subscriber_id"`
	GatewayURL      string          `json:"gateway_url"`
	SignatureScheme string          `json:"signature_scheme"`
	FeeValue        decimal.Decimal `json:"fee_value"`
	FeePercentage   bool            `json:"fee_percentage"`
}

func (s GatewaySettings) View() View {
	return View{
		MerchantID:      s.MerchantID,
		SecretSet:       s.SecretKey != "",
		TestMode:        s.TestMode,
		CurrencyCode:    s.CurrencyCode,
		SubscriberID:    s.SubscriberID,
		GatewayURL:      s.GatewayURL,
		SignatureScheme: s.SignatureScheme,
		FeeValue:        s.Fee.Value,
		FeePercentage:   s.Fee.Mode == fee.ModePercentage,
	}
}

// MarshalJSON encodes the View so the secret cannot leak through JSON.
func (s GatewaySettings) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.View())
}
