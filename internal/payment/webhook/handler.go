package webhook

import (
	"net/http"

	"monetadirect/internal/logger"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	responseSuccess = "SUCCESS"
	responseFail    = "FAIL"

	maxCallbackBody = 64 << 10
)

type Handler struct {
	validator *Validator
}

func NewWebhookHandler(v *Validator) *Handler {
	return &Handler{validator: v}
}

// PaymentCallbackHandler accepts form posts and GET retries alike. Rejections
// answer FAIL with 200 so the gateway stops; internal errors answer 500 so it
// redelivers.
func (h *Handler) PaymentCallbackHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	log := logger.FromCtx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxCallbackBody)
	if err := r.ParseForm(); err != nil {
		log.Warn("Unreadable callback", zap.Error(err))
		writeText(w, http.StatusOK, responseFail)
		return
	}

	cb, err := ParseCallback(r.Form)
	if err != nil {
		h.validator.metrics.RecordCallback(string(StateRejected), nil)
		log.Warn("Callback rejected", zap.Error(err))
		writeText(w, http.StatusOK, responseFail)
		return
	}

	res, err := h.validator.Handle(r.Context(), cb)
	if err != nil {
		writeText(w, http.StatusInternalServerError, responseFail)
		return
	}
	if res.State == StateRejected {
		writeText(w, http.StatusOK, responseFail)
		return
	}
	writeText(w, http.StatusOK, responseSuccess)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
