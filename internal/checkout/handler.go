package checkout

import (
	"bytes"
	"errors"
	"net/http"

	"monetadirect/internal/logger"
	"monetadirect/internal/metrics"
	"monetadirect/internal/order"
	"monetadirect/internal/payment"
	"monetadirect/internal/settings"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Handler sends the payer's browser from an order to the gateway.
type Handler struct {
	orders    order.Service
	processor *payment.Processor
	builder   *payment.Builder
	provider  *settings.Provider
	metrics   *metrics.Metrics
}

func NewHandler(
	orders order.Service,
	processor *payment.Processor,
	builder *payment.Builder,
	provider *settings.Provider,
	m *metrics.Metrics,
) *Handler {
	return &Handler{orders: orders, processor: processor, builder: builder, provider: provider, metrics: m}
}

func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	guid, err := uuid.Parse(ps.ByName("order_guid"))
	if err != nil {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	ctx := logger.WithTransactionID(r.Context(), guid.String())
	log := logger.FromCtx(ctx).With(zap.String("layer", "checkout"))

	o, err := h.orders.GetPaymentOrder(ctx, guid.String())
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		log.Error("Failed to load order", zap.Error(err))
		h.fail(w, "error", http.StatusInternalServerError, "payment is temporarily unavailable")
		return
	}
	if o.Status == order.OrderStatusPaid {
		h.fail(w, "already_paid", http.StatusConflict, "order is already paid")
		return
	}

	if res := h.processor.ProcessPayment(ctx, o.TransactionID()); res.Status != payment.StatusPending {
		log.Error("Payment not left pending", zap.String("status", string(res.Status)), zap.Error(res.Err))
		h.fail(w, "error", http.StatusInternalServerError, "payment is temporarily unavailable")
		return
	}

	s := h.provider.Current()
	req, err := h.builder.Build(ctx, o.CustomerID, o.TransactionID(),
		payment.OrderTotal{Amount: o.Total, CurrencyCode: o.Currency}, s)
	if err != nil {
		switch {
		case payment.IsCurrencyResolutionError(err), errors.Is(err, payment.ErrInvalidAmount):
			h.fail(w, "rejected", http.StatusUnprocessableEntity, "order cannot be paid online")
		default:
			// configuration problems are for the operator's log only
			log.Error("Payment request not built", zap.Error(err))
			h.fail(w, "error", http.StatusInternalServerError, "payment is temporarily unavailable")
		}
		return
	}

	var page bytes.Buffer
	if err := payment.RenderRedirect(&page, req, s.GatewayURL); err != nil {
		log.Error("Redirect page not rendered", zap.Error(err))
		h.fail(w, "error", http.StatusInternalServerError, "payment is temporarily unavailable")
		return
	}

	h.metrics.RecordRedirect("ok")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = page.WriteTo(w)
}

func (h *Handler) fail(w http.ResponseWriter, result string, status int, msg string) {
	h.metrics.RecordRedirect(result)
	http.Error(w, msg, status)
}
