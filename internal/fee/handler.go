package fee

import (
	"encoding/json"
	"net/http"

	"monetadirect/internal/logger"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type feeRequest struct {
	Items []CartItem `json:"items"`
}

type feeResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Fee      decimal.Decimal `json:"fee"`
	Mode     string          `json:"mode"`
}

// Handler serves POST /fee.
type Handler struct {
	calc *Calculator
}

func NewHandler(calc *Calculator) *Handler {
	return &Handler{calc: calc}
}

func (h *Handler) HandlingFee(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req feeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	resp := feeResponse{
		Subtotal: Subtotal(req.Items),
		Fee:      h.calc.HandlingFee(req.Items),
		Mode:     h.calc.Spec().Mode.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.FromCtx(r.Context()).Error("encode fee response", zap.Error(err))
	}
}
