package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"monetadirect/internal/fee"
	"monetadirect/internal/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// updateRequest carries the fields an operator may change. Nil means keep.
type updateRequest struct {
	MerchantID      *string          `json:"merchant_id"`
	SecretKey       *string          `json:"secret_key"`
	TestMode        *bool            `json:"test_mode"`
	CurrencyCode    *string          `json:"currency_code"`
	SubscriberID    *int64           `json:"subscriber_id"`
	GatewayURL      *string          `json:"gateway_url"`
	SignatureScheme *string          `json:"signature_scheme"`
	FeeValue        *decimal.Decimal `json:"fee_value"`
	FeePercentage   *bool            `json:"fee_percentage"`
}

func (u updateRequest) apply(s GatewaySettings) GatewaySettings {
	if u.MerchantID != nil {
		s.MerchantID = *u.MerchantID
	}
	if u.SecretKey != nil && *u.SecretKey != "" {
		s.SecretKey = *u.SecretKey
	}
	if u.TestMode != nil {
		s.TestMode = *u.TestMode
	}
	if u.CurrencyCode != nil {
		s.CurrencyCode = *u.CurrencyCode
	}
	if u.SubscriberID != nil {
		s.SubscriberID = *u.SubscriberID
	}
	if u.GatewayURL != nil {
		s.GatewayURL = *u.GatewayURL
	}
	if u.SignatureScheme != nil {
		s.SignatureScheme = *u.SignatureScheme
	}
	value := s.Fee.Value
	if u.FeeValue != nil {
		value = *u.FeeValue
	}
	percentage := s.Fee.Mode == fee.ModePercentage
	if u.FeePercentage != nil {
		percentage = *u.FeePercentage
	}
	if percentage {
		s.Fee = fee.Percentage(value)
	} else {
		s.Fee = fee.Fixed(value)
	}
	return s
}

// Handler is the operator configuration surface.
type Handler struct {
	repo     Repository
	provider *Provider
}

func NewHandler(repo Repository, provider *Provider) *Handler {
	return &Handler{repo: repo, provider: provider}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, r, http.StatusOK, h.provider.Current().View())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := logger.FromCtx(r.Context())

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	updated := req.apply(h.provider.Current())
	if err := updated.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := h.repo.Save(r.Context(), updated); err != nil {
		if errors.Is(err, ErrNotInstalled) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.Error("Failed to save gateway settings", zap.Error(err))
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}
	h.provider.Set(updated)

	log.Info("Gateway settings updated",
		zap.String("merchant_id", updated.MerchantID),
		zap.Bool("test_mode", updated.TestMode),
		logger.Redacted("secret_key", updated.SecretKey),
	)
	writeJSON(w, r, http.StatusOK, updated.View())
}

func (h *Handler) Install(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := logger.FromCtx(r.Context())

	if err := h.repo.Install(r.Context()); err != nil {
		log.Error("Failed to install gateway settings", zap.Error(err))
		http.Error(w, "failed to install settings", http.StatusInternalServerError)
		return
	}
	s, err := h.repo.Load(r.Context())
	if err != nil {
		log.Error("Failed to load gateway settings", zap.Error(err))
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}
	h.provider.Set(*s)

	log.Info("Gateway settings installed", zap.Bool("test_mode", s.TestMode))
	writeJSON(w, r, http.StatusCreated, s.View())
}

func (h *Handler) Uninstall(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.repo.Uninstall(r.Context()); err != nil {
		logger.FromCtx(r.Context()).Error("Failed to uninstall gateway settings", zap.Error(err))
		http.Error(w, "failed to uninstall settings", http.StatusInternalServerError)
		return
	}
	// without merchant credentials every checkout now fails closed
	h.provider.Set(Defaults())

	logger.FromCtx(r.Context()).Info("Gateway settings uninstalled")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromCtx(r.Context()).Error("encode response", zap.Error(err))
	}
}
