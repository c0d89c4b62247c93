package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"monetadirect/internal/logger"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// OperationsHandler exposes the processor contract to the host's back office.
type OperationsHandler struct {
	processor *Processor
}

func NewOperationsHandler(p *Processor) *OperationsHandler {
	return &OperationsHandler{processor: p}
}

type operationResponse struct {
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (h *OperationsHandler) Capabilities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, r, http.StatusOK, h.processor.Capabilities())
}

// Operation runs capture, refund, void or a recurring action on an order.
func (h *OperationsHandler) Operation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	txID := ps.ByName("order_guid")

	var res Result
	switch ps.ByName("operation") {
	case "capture":
		res = h.processor.Capture(r.Context(), txID)
	case "refund":
		res = h.processor.Refund(r.Context(), txID)
	case "void":
		res = h.processor.Void(r.Context(), txID)
	case "recurring":
		res = h.processor.ProcessRecurring(r.Context(), txID)
	case "cancel-recurring":
		res = h.processor.CancelRecurring(r.Context(), txID)
	default:
		http.Error(w, "unknown operation", http.StatusNotFound)
		return
	}

	resp := operationResponse{Status: res.Status}
	status := http.StatusOK
	if res.Err != nil {
		resp.Error = res.Err.Error()
		var uerr *UnsupportedOperationError
		if errors.As(res.Err, &uerr) {
			resp.Retryable = uerr.Retryable()
			status = http.StatusNotImplemented
		} else {
			status = http.StatusInternalServerError
		}
	}
	writeJSON(w, r, status, resp)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromCtx(r.Context()).Error("encode response", zap.Error(err))
	}
}
