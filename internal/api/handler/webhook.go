package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/adesina-dev/panelpay/internal/service"
	"go.uber.org/zap"
)

// WebhookHandler receives payment-gateway callbacks.
type WebhookHandler struct {
	reconciler *service.ReconcilerService
}

func NewWebhookHandler(reconciler *service.ReconcilerService) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// HandleDeposit handles POST /v1/webhooks/deposits.
// Any outcome the reconciler classifies is acknowledged with 200 so the
// gateway stops redelivering; only an unverifiable signature is rejected.
func (h *WebhookHandler) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Error("read webhook body failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")

	result, err := h.reconciler.HandleDepositWebhook(r.Context(), body, signature)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			RespondError(w, r, http.StatusUnauthorized, "webhook/invalid-signature", "Invalid signature")
			return
		}
		if errors.Is(err, service.ErrInvalidPayload) {
			RespondError(w, r, http.StatusBadRequest, "webhook/invalid-payload", "Invalid payload")
			return
		}
		zap.L().Error("process deposit webhook failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "webhook/processing-failed", "Failed to process webhook")
		return
	}

	RespondJSON(w, http.StatusOK, result)
}
