package handlers

import (
	"crypto/subtle"
	"net/http"

	"tracknow/internal/logx"
)

// WebhookSecretHeader carries the shared secret of the payment provider.
const WebhookSecretHeader = "X-Webhook-Secret"

// PaymentHandler receives payment provider callbacks.
type PaymentHandler struct {
	usecase paymentUsecase
	secret  string
	logger  logx.Logger
}

// NewPaymentHandler creates a new PaymentHandler. An empty secret disables the check.
func NewPaymentHandler(logger logx.Logger, uc paymentUsecase, secret string) *PaymentHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &PaymentHandler{usecase: uc, secret: secret, logger: logger}
}

// Webhook handles POST /payments/webhook.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" {
		got := r.Header.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("payment webhook rejected",
				logx.String("req_id", reqID(r.Context())),
				logx.String("reason", "bad secret"),
			)
			writeError(h.logger, w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
	}

	var req paymentWebhookRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}

	o, err := h.usecase.Handle(r.Context(), req.toModel())
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o))
}
