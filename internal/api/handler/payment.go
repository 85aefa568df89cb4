package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adesina-dev/panelpay/internal/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentHandler starts gateway deposits.
type PaymentHandler struct {
	paymentSvc *service.PaymentService
}

func NewPaymentHandler(paymentSvc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

type initiateDepositRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	RedirectURL string          `json:"redirect_url"`
}

// InitiateDeposit handles POST /v1/payments/initiate.
// It records a pending deposit and returns the gateway checkout URL.
func (h *PaymentHandler) InitiateDeposit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req initiateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	result, err := h.paymentSvc.Initiate(r.Context(), service.InitiateDepositRequest{
		UserID:      actorID,
		Amount:      req.Amount,
		RedirectURL: req.RedirectURL,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			RespondError(w, r, http.StatusBadRequest, "payment/invalid-request", err.Error())
			return
		}
		zap.L().Error("initiate deposit failed", zap.Error(err))
		RespondError(w, r, http.StatusBadGateway, "payment/gateway-failed", "Failed to initiate payment")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"reference":   result.Reference,
		"payment_url": result.PaymentURL,
	})
}
